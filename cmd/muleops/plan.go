package main

import (
	"github.com/spf13/cobra"
)

func newPlanCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which resources would change without mutating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = true
			opts.Verbose = root.verbose
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}
