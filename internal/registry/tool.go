// Package registry holds the declarative tool definitions: what parameters a
// tool takes, and the callback that runs it. Descriptors are first-class data;
// the CLI flag surface and the JSON schema are both derived from them.
package registry

import (
	"context"
	"strings"

	"github.com/hession/datakit/internal/paths"
)

// Kind is the semantic type of a tool parameter.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTrackedPath
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTrackedPath:
		return "tracked_path"
	default:
		return "unknown"
	}
}

// Param declares one tool parameter.
//
// Name is snake_case and unique within a tool; the CLI flag is derived from
// it. A nil Default makes the parameter required. Placeholder is the raw
// template token ("group:index") used in schema and template output.
//
// tracked_path parameters implicitly own a second, hidden companion flag,
// --<flag>-origin (same repeatability, never required): the CLI layer derives
// it, it is not declared here.
type Param struct {
	Name        string
	Kind        Kind
	Repeatable  bool
	Default     any
	Help        string
	Placeholder string
}

// CLIName returns the kebab-case flag name (without the -- prefix).
func (p Param) CLIName() string {
	return strings.ReplaceAll(p.Name, "_", "-")
}

// OriginCLIName returns the companion origin-override flag name for
// tracked_path parameters.
func (p Param) OriginCLIName() string {
	return p.CLIName() + "-origin"
}

// Required reports whether the parameter must be supplied (no default).
func (p Param) Required() bool {
	return p.Default == nil
}

// Tool is the immutable definition of one dispatchable tool: constructed at
// registration time, never mutated afterwards.
type Tool struct {
	Name        string
	Description string
	Params      []Param

	// Run receives one resolved value per declared parameter, keyed by the
	// parameter's Name. Its return value is the only reported outcome.
	Run func(ctx context.Context, args Args) error

	// SubSchemas carries extra declarative documents (e.g. the expected
	// structure of a config file parameter) verbatim into the tool's schema.
	SubSchemas map[string]any
}

// Args carries the resolved parameter values passed to a tool callback.
// Values are keyed by parameter name and typed per the parameter's Kind:
// string/int/float64 scalars, paths.TrackedPath for tracked paths, and
// slices of those for repeatable parameters.
type Args map[string]any

// String returns the named string parameter.
func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

// Int returns the named int parameter.
func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

// Float returns the named float parameter.
func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

// Path returns the named tracked-path parameter.
func (a Args) Path(name string) paths.TrackedPath {
	v, _ := a[name].(paths.TrackedPath)
	return v
}

// Strings returns the named repeatable string parameter.
func (a Args) Strings(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// Ints returns the named repeatable int parameter.
func (a Args) Ints(name string) []int {
	v, _ := a[name].([]int)
	return v
}

// Floats returns the named repeatable float parameter.
func (a Args) Floats(name string) []float64 {
	v, _ := a[name].([]float64)
	return v
}

// Paths returns the named repeatable tracked-path parameter.
func (a Args) Paths(name string) []paths.TrackedPath {
	v, _ := a[name].([]paths.TrackedPath)
	return v
}
