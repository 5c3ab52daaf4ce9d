package main

import (
	"fmt"
	"strconv"

	"github.com/dunamismax/batch4k/internal/pipeline"
	"github.com/spf13/cobra"
)

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <image>...",
		Short: "Show the 4K dimensions and archive names without resizing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}
			entries, err := pipeline.Plan(uploads)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Source,
					e.Format,
					fmt.Sprintf("%dx%d", e.SourceWidth, e.SourceHeight),
					strconv.FormatFloat(e.AspectRatio, 'f', 3, 64),
					fmt.Sprintf("%dx%d", e.Width, e.Height),
					e.Name,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Format", "Original", "Aspect", "4K", "Archive Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
