// Package extract writes a document's embedded images into an image
// directory, preserving document order via a zero-padded ordinal prefix.
package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/industrialsast/scrtimecheck/internal/document"
)

// Images extracts every image part of src into destDir and returns the number
// of image parts present on disk afterwards. Parts whose content type is not
// an image are skipped. File names are "<ordinal>_<original name>" where the
// ordinal is 1-based and zero-padded to the digit count of the total part
// count. Extraction is deterministic for a given document, so a name that
// already exists non-empty is a prior run's output and is left alone; the
// directory is a cache, same as the text artifacts downstream.
func Images(src document.Source, destDir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	parts, err := src.Parts()
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate document parts: %w", err)
	}

	width := len(strconv.Itoa(len(parts)))
	count := 0
	for i, part := range parts {
		if !part.IsImage() {
			logger.Debug("skipping non-image part", "part", part.Name, "content_type", part.ContentType)
			continue
		}

		dest := filepath.Join(destDir, fmt.Sprintf("%0*d_%s", width, i+1, filepath.Base(part.Name)))
		if fi, err := os.Stat(dest); err == nil && fi.Size() > 0 {
			logger.Debug("image already extracted", "file", filepath.Base(dest))
			count++
			continue
		}
		if err := os.WriteFile(dest, part.Data, 0o644); err != nil {
			return count, fmt.Errorf("failed to write image %s: %w", dest, err)
		}
		logger.Debug("extracted image", "file", filepath.Base(dest), "bytes", len(part.Data))
		count++
	}

	return count, nil
}
