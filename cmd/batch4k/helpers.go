package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dunamismax/batch4k/internal/domain"
)

// readUploads loads files in argument order and applies the batch bound
// before anything is decoded.
func readUploads(paths []string) ([]domain.Upload, error) {
	if len(paths) > domain.MaxBatchImages {
		return nil, domain.ErrBatchTooLarge
	}

	uploads := make([]domain.Upload, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		uploads = append(uploads, domain.Upload{Name: filepath.Base(path), Data: data})
	}
	if err := domain.ValidateBatch(uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}
