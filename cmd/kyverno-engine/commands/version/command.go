package version

import (
	"fmt"

	"github.com/kyverno/admission-engine/pkg/version"
	"github.com/spf13/cobra"
)

// Command returns version command
func Command() *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "Shows current version of kyverno-engine.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version.Version())
			fmt.Fprintf(out, "Time: %s\n", version.BuildTime)
			fmt.Fprintf(out, "Git commit ID: %s\n", version.BuildHash)
			return nil
		},
	}
}
