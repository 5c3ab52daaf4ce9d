package pipeline

import (
	"fmt"

	"github.com/dunamismax/batch4k/internal/domain"
	"github.com/dunamismax/batch4k/internal/imagecodec"
	"github.com/dunamismax/batch4k/internal/resize"
)

// PlanEntry describes what Process would produce for one upload.
type PlanEntry struct {
	Source       string  `json:"source"`
	Name         string  `json:"name"`
	Format       string  `json:"format"`
	SourceWidth  int     `json:"source_width"`
	SourceHeight int     `json:"source_height"`
	AspectRatio  float64 `json:"aspect_ratio"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
}

// Plan reads only image headers and reports target sizes and member names.
func Plan(uploads []domain.Upload) ([]PlanEntry, error) {
	entries := make([]PlanEntry, 0, len(uploads))
	for i, upload := range uploads {
		seq := i + 1
		if _, err := imagecodec.FormatFromName(upload.Name); err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", seq, upload.Name, err)
		}
		cfg, err := imagecodec.DecodeConfig(upload.Data)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", seq, upload.Name, err)
		}
		ratio, err := resize.AspectRatio(cfg.Width, cfg.Height)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", seq, upload.Name, err)
		}
		width, height, err := resize.FitDimensions(cfg.Width, cfg.Height, resize.UHD)
		if err != nil {
			return nil, fmt.Errorf("image %d (%s): %w", seq, upload.Name, err)
		}

		entries = append(entries, PlanEntry{
			Source:       upload.Name,
			Name:         MemberName(upload.Name, seq),
			Format:       cfg.Format.String(),
			SourceWidth:  cfg.Width,
			SourceHeight: cfg.Height,
			AspectRatio:  ratio,
			Width:        width,
			Height:       height,
		})
	}
	return entries, nil
}
