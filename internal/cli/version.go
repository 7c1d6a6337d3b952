package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varsilias/researchpaper/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuiltAt)
		},
	}
}
