package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hession/datakit/internal/registry"
)

// NewListCmd creates the "list" command: one name + description line per
// registered tool, in registration order. Always exits 0, even with zero
// tools.
func NewListCmd(reg *registry.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered tools",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range reg.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %s\n", t.Name, t.Description)
			}
		},
	}
}
