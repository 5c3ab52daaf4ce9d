package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/id"
	"github.com/dunamismax/batch4k/internal/pipeline"
	"github.com/dunamismax/batch4k/internal/resize"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newResizeCommand() *cobra.Command {
	var (
		output string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "resize <image>...",
		Short: "Resize up to 20 images to fit 3840x2160 and write a ZIP archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := resize.ParseFilter(filter)
			if err != nil {
				return err
			}
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}

			processor, err := pipeline.NewProcessor(parsed)
			if err != nil {
				return err
			}
			result, err := processor.Process(cmd.Context(), pipeline.Request{BatchID: id.New(), Uploads: uploads})
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			if err := os.WriteFile(output, result.Archive, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, o := range result.Outputs {
				fmt.Fprintf(out, "%s -> %s (%dx%d -> %dx%d)\n", o.Source, o.Name, o.SourceWidth, o.SourceHeight, o.Width, o.Height)
			}
			fmt.Fprintf(out, "Wrote %d images to %s (%s)\n", len(result.Outputs), output, humanize.Bytes(uint64(len(result.Archive))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", domain.ArchiveFilename, "Archive path to write")
	cmd.Flags().StringVar(&filter, "filter", string(resize.FilterLanczos3), "Resampling filter (lanczos3, catmullrom)")
	return cmd
}
