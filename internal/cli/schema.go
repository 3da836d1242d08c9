package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hession/datakit/internal/registry"
	"github.com/hession/datakit/internal/schema"
)

// NewSchemaCmd creates the "schema" command: a machine-readable JSON
// description of one tool (or all of them) for pipeline orchestrators.
func NewSchemaCmd(reg *registry.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [tool]",
		Short: "Generate a machine-readable schema for a tool (or all tools)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, reg, args)
		},
	}

	cmd.Flags().Bool("all", false, "Emit schemas for every tool.")
	cmd.Flags().String("format", "json", "Output format: json (full schema) or template (adds an invocation string).")
	cmd.Flags().String("placeholder-style", string(schema.StyleMustache), "Placeholder syntax: mustache, shell, or plain.")

	return cmd
}

func runSchema(cmd *cobra.Command, reg *registry.Registry, args []string) error {
	flags := cmd.Flags()

	styleRaw, _ := flags.GetString("placeholder-style")
	style, err := schema.ParseStyle(styleRaw)
	if err != nil {
		return err
	}

	format, _ := flags.GetString("format")
	opts := schema.Options{Style: style}
	switch format {
	case "json", "plain":
	case "template":
		opts.IncludeTemplate = true
	default:
		return fmt.Errorf("unknown format: %q (expected json or template)", format)
	}

	all, _ := flags.GetBool("all")

	var out any
	switch {
	case all:
		out = schema.BuildAll(reg, opts)
	case len(args) == 1:
		t, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		out = schema.Build(t, opts)
	default:
		return errors.New("provide a tool name or --all")
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
