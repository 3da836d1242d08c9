// Package cli wires the tool registry into cobra commands: list, schema,
// run (one synthesized subcommand per registered tool), history and the
// interactive shell. The flag surface is derived from the declarative
// parameter definitions; nothing here is hand-declared per tool.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hession/datakit/internal/config"
	"github.com/hession/datakit/internal/history"
	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/paths"
	"github.com/hession/datakit/internal/registry"
)

// Predefined errors
var (
	// ErrParameterType reports a flag value that does not coerce to the
	// parameter's declared kind.
	ErrParameterType = errors.New("invalid parameter value")

	// ErrMissingParameter reports a required parameter with zero occurrences.
	ErrMissingParameter = errors.New("missing required parameter")
)

// NewRunCmd creates the "run" command group with one subcommand per
// registered tool.
func NewRunCmd(reg *registry.Registry, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool>",
		Short: "Run a registered tool",
	}
	for _, t := range reg.List() {
		cmd.AddCommand(newToolCmd(t, cfg))
	}
	return cmd
}

// newToolCmd synthesizes the full flag surface for one tool: one flag per
// parameter, a hidden --<flag>-origin companion per tracked_path parameter,
// and the global --log-level / --origin-map flags.
func newToolCmd(t *registry.Tool, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          t.Name,
		Short:        t.Description,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, t, cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("log-level", logger.DefaultLevelName, "Logging level (debug, info, warn, error).")
	flags.String("origin-map", "", "Comma-separated local=real prefix pairs for origin rewriting.")

	for _, p := range t.Params {
		// All values are bound as strings; the binder coerces them so type
		// failures name the flag and the raw value.
		if p.Repeatable {
			flags.StringArray(p.CLIName(), nil, p.Help)
		} else {
			flags.String(p.CLIName(), "", p.Help)
		}
		if p.Kind == registry.KindTrackedPath {
			help := fmt.Sprintf("Override origin path for %s (positional match).", p.Name)
			if p.Repeatable {
				flags.StringArray(p.OriginCLIName(), nil, help)
			} else {
				flags.String(p.OriginCLIName(), "", help)
			}
		}
	}

	return cmd
}

// runTool parses the invocation, resolves tracked paths, calls the tool
// callback once with all arguments, and records the run. Callback errors
// propagate unchanged.
func runTool(cmd *cobra.Command, t *registry.Tool, cfg *config.Config) error {
	flags := cmd.Flags()

	levelRaw, _ := flags.GetString("log-level")
	level, err := logger.ParseLevel(levelRaw)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	rules, err := originRules(flags, cfg)
	if err != nil {
		return err
	}

	args, pathRecords, err := bindParams(t, flags, rules)
	if err != nil {
		return err
	}

	logger.Info("Running tool: %s", t.Name)
	started := time.Now()
	runErr := t.Run(cmd.Context(), args)
	finished := time.Now()

	recordRun(cfg, t.Name, started, finished, pathRecords, runErr)

	return runErr
}

// originRules combines --origin-map rules with the config-file defaults.
// Command-line rules come first, so they win on a shared prefix.
func originRules(flags *pflag.FlagSet, cfg *config.Config) ([]paths.Rule, error) {
	raw, _ := flags.GetString("origin-map")
	rules, err := paths.ParseOriginMap(raw)
	if err != nil {
		return nil, err
	}
	return append(rules, cfg.Rules()...), nil
}

// bindParams turns the parsed flags into the typed argument map passed to
// the callback, in parameter declaration order.
func bindParams(t *registry.Tool, flags *pflag.FlagSet, rules []paths.Rule) (registry.Args, []history.PathRecord, error) {
	args := make(registry.Args, len(t.Params))
	var records []history.PathRecord

	for _, p := range t.Params {
		if p.Kind == registry.KindTrackedPath {
			tracked, err := bindTrackedParam(p, flags, rules)
			if err != nil {
				return nil, nil, err
			}
			for i, tp := range tracked {
				records = append(records, history.PathRecord{
					Param:   p.Name,
					Index:   i,
					Working: tp.Working,
					Origin:  tp.Origin,
				})
			}
			if p.Repeatable {
				args[p.Name] = tracked
			} else {
				args[p.Name] = tracked[0]
			}
			continue
		}

		value, err := bindScalarParam(p, flags)
		if err != nil {
			return nil, nil, err
		}
		args[p.Name] = value
	}

	return args, records, nil
}

func bindTrackedParam(p registry.Param, flags *pflag.FlagSet, rules []paths.Rule) ([]paths.TrackedPath, error) {
	var working, explicit []string

	if p.Repeatable {
		working, _ = flags.GetStringArray(p.CLIName())
		explicit, _ = flags.GetStringArray(p.OriginCLIName())
	} else {
		if flags.Changed(p.CLIName()) {
			w, _ := flags.GetString(p.CLIName())
			working = []string{w}
		}
		if flags.Changed(p.OriginCLIName()) {
			e, _ := flags.GetString(p.OriginCLIName())
			explicit = []string{e}
		}
	}

	if len(working) == 0 {
		if p.Required() {
			return nil, fmt.Errorf("%w: --%s", ErrMissingParameter, p.CLIName())
		}
		switch d := p.Default.(type) {
		case string:
			working = []string{d}
		case []string:
			working = d
		default:
			return nil, fmt.Errorf("parameter %s has a non-path default (%T)", p.Name, p.Default)
		}
	}

	return paths.ResolveAll(p.CLIName(), working, explicit, rules)
}

func bindScalarParam(p registry.Param, flags *pflag.FlagSet) (any, error) {
	if p.Repeatable {
		raw, _ := flags.GetStringArray(p.CLIName())
		if len(raw) == 0 {
			if p.Required() {
				return nil, fmt.Errorf("%w: --%s", ErrMissingParameter, p.CLIName())
			}
			return p.Default, nil
		}
		return coerceAll(p, raw)
	}

	if !flags.Changed(p.CLIName()) {
		if p.Required() {
			return nil, fmt.Errorf("%w: --%s", ErrMissingParameter, p.CLIName())
		}
		return p.Default, nil
	}

	raw, _ := flags.GetString(p.CLIName())
	return coerce(p, raw)
}

func coerce(p registry.Param, raw string) (any, error) {
	switch p.Kind {
	case registry.KindInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: --%s: %q is not an integer", ErrParameterType, p.CLIName(), raw)
		}
		return v, nil
	case registry.KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: --%s: %q is not a number", ErrParameterType, p.CLIName(), raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func coerceAll(p registry.Param, raw []string) (any, error) {
	switch p.Kind {
	case registry.KindInt:
		values := make([]int, 0, len(raw))
		for _, r := range raw {
			v, err := coerce(p, r)
			if err != nil {
				return nil, err
			}
			values = append(values, v.(int))
		}
		return values, nil
	case registry.KindFloat:
		values := make([]float64, 0, len(raw))
		for _, r := range raw {
			v, err := coerce(p, r)
			if err != nil {
				return nil, err
			}
			values = append(values, v.(float64))
		}
		return values, nil
	default:
		return raw, nil
	}
}

// recordRun appends the invocation to the history store. Recording problems
// are logged and never mask the tool's own result.
func recordRun(cfg *config.Config, tool string, started, finished time.Time, pathRecords []history.PathRecord, runErr error) {
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		logger.Warn("Failed to open history store: %v", err)
		return
	}
	defer store.Close()

	run := &history.Run{
		Tool:       tool,
		Status:     "ok",
		StartedAt:  started,
		FinishedAt: finished,
		Paths:      pathRecords,
	}
	if runErr != nil {
		run.Status = "error"
		run.Error = runErr.Error()
	}

	if err := store.Record(run); err != nil {
		logger.Warn("Failed to record run: %v", err)
	}
}
