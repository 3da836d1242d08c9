package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hession/datakit/internal/config"
	"github.com/hession/datakit/internal/history"
)

// NewHistoryCmd creates the "history" command: recent tool runs with the
// working/origin provenance of every tracked path they received.
func NewHistoryCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool runs and their path provenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runHistory(cmd, cfg, limit)
		},
	}
	cmd.Flags().Int("limit", 0, "Number of runs to show (default from config).")
	return cmd
}

func runHistory(cmd *cobra.Command, cfg *config.Config, limit int) error {
	if limit <= 0 {
		limit = cfg.History.Limit
	}

	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		duration := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)
		fmt.Fprintf(out, "%s  %-20s %-6s %s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.Tool, run.Status, duration)
		if run.Error != "" {
			fmt.Fprintf(out, "    error: %s\n", run.Error)
		}
		for _, p := range run.Paths {
			fmt.Fprintf(out, "    %s[%d]: %s (origin: %s)\n", p.Param, p.Index, p.Working, p.Origin)
		}
	}
	return nil
}
