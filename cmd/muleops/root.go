package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "muleops",
		Short:         "muleops reconciles declared Anypoint Platform resources against their actual state",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Preview mutations without issuing them")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
