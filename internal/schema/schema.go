// Package schema renders a tool definition into a machine-readable document
// for pipeline orchestrators: plain JSON, no ANSI, stable field order.
// Building a document is a pure function of the tool and the chosen
// placeholder style.
package schema

import (
	"fmt"
	"strings"

	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/registry"
)

// binaryName is the invocation name used in rendered templates.
const binaryName = "datakit"

// Style selects how placeholder tokens are wrapped in the output.
type Style string

const (
	StyleMustache Style = "mustache" // {{token}}
	StyleShell    Style = "shell"    // ${token}
	StylePlain    Style = "plain"    // token
)

// ParseStyle parses a --placeholder-style value.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleMustache:
		return StyleMustache, nil
	case StyleShell:
		return StyleShell, nil
	case StylePlain:
		return StylePlain, nil
	default:
		return StyleMustache, fmt.Errorf("unknown placeholder style: %q", s)
	}
}

// Render wraps a raw placeholder token according to style.
func Render(token string, style Style) string {
	switch style {
	case StyleShell:
		return "${" + token + "}"
	case StylePlain:
		return token
	default:
		return "{{" + token + "}}"
	}
}

// Document is the wire contract consumed by external orchestrators. Changes
// must stay additive.
type Document struct {
	Tool          string         `json:"tool"`
	Description   string         `json:"description"`
	Params        []ParamEntry   `json:"params"`
	GlobalOptions GlobalOptions  `json:"global_options"`
	SubSchemas    map[string]any `json:"sub_schemas,omitempty"`
	Template      string         `json:"template,omitempty"`
}

// ParamEntry describes one parameter of the tool's CLI contract.
type ParamEntry struct {
	Name              string `json:"name"`
	CLIName           string `json:"cli_name"`
	Type              string `json:"type"`
	Required          bool   `json:"required"`
	Default           any    `json:"default,omitempty"`
	Help              string `json:"help,omitempty"`
	Placeholder       string `json:"placeholder,omitempty"`
	OriginPlaceholder string `json:"origin_placeholder,omitempty"`
	Note              string `json:"note,omitempty"`
}

// GlobalOptions documents the flags every run command accepts.
type GlobalOptions struct {
	OriginMap OriginMapOption `json:"origin_map"`
	LogLevel  LogLevelOption  `json:"log_level"`
}

// OriginMapOption documents --origin-map.
type OriginMapOption struct {
	CLIName     string `json:"cli_name"`
	Placeholder string `json:"placeholder"`
	Format      string `json:"format"`
	Help        string `json:"help"`
}

// LogLevelOption documents --log-level.
type LogLevelOption struct {
	CLIName string   `json:"cli_name"`
	Default string   `json:"default"`
	Choices []string `json:"choices"`
}

// Options controls document rendering.
type Options struct {
	Style           Style
	IncludeTemplate bool
}

// Build produces the schema document for one tool. Output is deterministic:
// identical inputs yield byte-identical JSON.
func Build(t *registry.Tool, opts Options) Document {
	style := opts.Style
	if style == "" {
		style = StyleMustache
	}

	params := make([]ParamEntry, 0, len(t.Params))
	for _, p := range t.Params {
		entry := ParamEntry{
			Name:     p.Name,
			CLIName:  "--" + p.CLIName(),
			Type:     typeString(p),
			Required: p.Required(),
			Default:  p.Default,
			Help:     p.Help,
		}
		if p.Placeholder != "" {
			entry.Placeholder = Render(p.Placeholder, style)
			if p.Kind == registry.KindTrackedPath {
				entry.OriginPlaceholder = Render(originPlaceholder(p.Placeholder), style)
			}
		}
		if p.Kind == registry.KindTrackedPath && p.Repeatable {
			entry.Note = fmt.Sprintf(
				"Repeat --%s for each path. Optionally repeat --%s in matching order.",
				p.CLIName(), p.OriginCLIName())
		}
		params = append(params, entry)
	}

	doc := Document{
		Tool:        t.Name,
		Description: t.Description,
		Params:      params,
		GlobalOptions: GlobalOptions{
			OriginMap: OriginMapOption{
				CLIName:     "--origin-map",
				Placeholder: Render("origin.path", style),
				Format:      "<local_prefix>=<real_prefix>[,...]",
				Help:        "Comma-separated prefix rewrite rules for path origins.",
			},
			LogLevel: LogLevelOption{
				CLIName: "--log-level",
				Default: logger.DefaultLevelName,
				Choices: logger.LevelNames(),
			},
		},
		SubSchemas: t.SubSchemas,
	}

	if opts.IncludeTemplate {
		doc.Template = Template(t, style)
	}

	return doc
}

// BuildAll produces one document per registered tool, in registry order.
func BuildAll(reg *registry.Registry, opts Options) []Document {
	tools := reg.List()
	docs := make([]Document, 0, len(tools))
	for _, t := range tools {
		docs = append(docs, Build(t, opts))
	}
	return docs
}

// Template renders a ready-to-edit invocation of the tool with every
// parameter's placeholder substituted, in declaration order, followed by the
// global options that carry a placeholder.
func Template(t *registry.Tool, style Style) string {
	parts := []string{fmt.Sprintf("%s run %s", binaryName, t.Name)}
	for _, p := range t.Params {
		ph := "<" + p.Name + ">"
		if p.Placeholder != "" {
			ph = Render(p.Placeholder, style)
		}
		if p.Repeatable {
			parts = append(parts, fmt.Sprintf("--%s '%s' [...]", p.CLIName(), ph))
		} else {
			parts = append(parts, fmt.Sprintf("--%s '%s'", p.CLIName(), ph))
		}
	}
	parts = append(parts, fmt.Sprintf("--origin-map '%s'", Render("origin.path", style)))
	return strings.Join(parts, " \\\n  ")
}

// typeString renders the schema "type" field. tracked_path lists keep their
// element type spelled out; scalar lists do too.
func typeString(p registry.Param) string {
	if p.Repeatable {
		return "list[" + p.Kind.String() + "]"
	}
	return p.Kind.String()
}

// originPlaceholder derives the origin token from a working-path token:
// "dataset.path[]" -> "dataset.path[]:origin". The origin is still a path;
// the :origin suffix distinguishes it from the working-copy placeholder.
func originPlaceholder(placeholder string) string {
	if strings.HasSuffix(placeholder, "[]") {
		return strings.TrimSuffix(placeholder, "[]") + "[]:origin"
	}
	return placeholder + ":origin"
}
