// Package paths tracks the two names every staged dataset file has: the
// working path a tool reads and writes, and the origin path recorded for
// provenance. Resolution here is pure string manipulation; no file I/O.
package paths

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Predefined errors
var (
	// ErrOriginMapSyntax reports a malformed --origin-map segment (missing "=").
	ErrOriginMapSyntax = errors.New("invalid origin-map entry")

	// ErrOriginArity reports more --<param>-origin occurrences than --<param> occurrences.
	ErrOriginArity = errors.New("more origin overrides than working paths")
)

// TrackedPath is a filesystem path that remembers where the data originally
// came from. Working is the fast/local path used for actual I/O (e.g. a copy
// under $TMPDIR); Origin is the canonical path used for logging and metadata.
type TrackedPath struct {
	Working string
	Origin  string
}

// String returns the working path, so a TrackedPath can stand in anywhere a
// plain path string is expected.
func (t TrackedPath) String() string {
	return t.Working
}

// Rule rewrites one working-path prefix to its origin prefix.
type Rule struct {
	LocalPrefix string
	RealPrefix  string
}

// ParseOriginMap parses "local=real,local2=real2" into an ordered rule list.
// Environment variables are expanded on both sides. A segment without "="
// fails with ErrOriginMapSyntax naming the segment.
func ParseOriginMap(raw string) ([]Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var rules []Rule
	for _, segment := range strings.Split(raw, ",") {
		local, real, ok := strings.Cut(segment, "=")
		if !ok || strings.TrimSpace(real) == "" {
			return nil, fmt.Errorf("%w: %q (expected <local>=<real>)", ErrOriginMapSyntax, segment)
		}
		rules = append(rules, Rule{
			LocalPrefix: ExpandEnv(strings.TrimSpace(local)),
			RealPrefix:  ExpandEnv(strings.TrimSpace(real)),
		})
	}
	return rules, nil
}

// ResolveOrigin determines the origin path for working.
//
// Priority:
//  1. explicit (from --<param>-origin), when non-empty
//  2. first rule whose LocalPrefix is a string prefix of working
//  3. fallback: working itself
//
// Prefix matching is on plain strings, not path components: "/scratch"
// matches "/scratchy/x".
func ResolveOrigin(working string, explicit string, rules []Rule) string {
	if explicit != "" {
		return explicit
	}
	for _, r := range rules {
		if strings.HasPrefix(working, r.LocalPrefix) {
			return r.RealPrefix + working[len(r.LocalPrefix):]
		}
	}
	return working
}

// ResolveAll pairs each working path with its origin. explicit[i] overrides
// occurrence i; fewer overrides than working paths is fine (the rest fall
// through to the rules), more is an ErrOriginArity for the named parameter.
func ResolveAll(param string, working []string, explicit []string, rules []Rule) ([]TrackedPath, error) {
	if len(explicit) > len(working) {
		return nil, fmt.Errorf("%w: --%s-origin given %d times, --%s only %d",
			ErrOriginArity, param, len(explicit), param, len(working))
	}

	tracked := make([]TrackedPath, 0, len(working))
	for i, w := range working {
		w = ExpandEnv(w)
		var e string
		if i < len(explicit) {
			e = ExpandEnv(explicit[i])
		}
		tracked = append(tracked, TrackedPath{
			Working: w,
			Origin:  ResolveOrigin(w, e, rules),
		})
	}
	return tracked, nil
}

// ExpandEnv expands $NAME and ${NAME} references. Unlike os.ExpandEnv, a
// reference to an unset variable passes through literally instead of
// expanding to the empty string, so a bad rule simply fails to match later.
func ExpandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "$" + name
	})
}
