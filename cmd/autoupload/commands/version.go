package commands

import (
	"fmt"

	"github.com/ghiro/autoupload/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "autoupload %s (commit %s)\n", version.Number(), version.Commit())
	},
}
