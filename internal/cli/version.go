package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print toolguard version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "toolguard %s\n", Version)
			fmt.Fprintf(out, "  Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:  %s\n", BuildDate)
		},
	}
}
