package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand returns the `rowshape version` command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rowshape %s\n", version)
		},
	}
}
