package commands

import (
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/command"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/commands/apply"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/commands/serve"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/commands/version"
	"github.com/spf13/cobra"
)

var description = []string{
	`Kyverno compatible admission decision engine.`,
	`Evaluates Kyverno policies against resources, either offline with apply or as an admission webhook with serve.`,
}

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kyverno-engine",
		Short:        command.FormatDescription(true, description...),
		Long:         command.FormatDescription(false, description...),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		apply.Command(),
		serve.Command(),
		version.Command(),
	)
	return cmd
}
