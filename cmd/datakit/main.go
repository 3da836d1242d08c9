package main

import (
	"fmt"
	"os"

	"github.com/hession/datakit/internal/cli"
	"github.com/hession/datakit/internal/config"
	"github.com/hession/datakit/internal/logger"
	"github.com/hession/datakit/internal/registry"
	"github.com/hession/datakit/internal/tools"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := initLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	reg := registry.New()
	if err := tools.RegisterAll(reg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to register tools: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCmd(reg, cfg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(reg *registry.Registry, cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datakit",
		Short: "DataKit - dataset processing tools with origin tracking",
		Long: `DataKit is a dispatcher for dataset-processing tools.

It can:
  • Run registered tools with declaratively defined parameters
  • Resolve the real origin of every path argument via --<flag>-origin
    overrides and --origin-map prefix rules
  • Emit machine-readable JSON schemas and invocation templates
  • Record every run, with its resolved paths, in a local history`,
	}

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())

			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig file path: %s\n", path)
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "DataKit v%s\n", version)
		},
	}

	rootCmd.AddCommand(cli.NewListCmd(reg))
	rootCmd.AddCommand(cli.NewSchemaCmd(reg))
	rootCmd.AddCommand(cli.NewRunCmd(reg, cfg))
	rootCmd.AddCommand(cli.NewHistoryCmd(cfg))
	rootCmd.AddCommand(cli.NewShellCmd(reg, cfg))
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func initLogger(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	return logger.Init(logger.Config{
		LogDir:  cfg.Log.Dir,
		Level:   level,
		MaxDays: cfg.Log.MaxDays,
	})
}
