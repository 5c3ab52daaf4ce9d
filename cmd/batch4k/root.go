package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "batch4k",
		Short:         "Resize image batches to fit 4K and package them as a ZIP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newResizeCommand())
	rootCmd.AddCommand(newPlanCommand())

	return rootCmd
}
