// Package replace swaps embedded docx media for updated screenshots. The
// replacement files carry the names the extractor produced, so a reviewed and
// re-captured image maps back to its media part without touching document
// markup.
package replace

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/industrialsast/scrtimecheck/internal/workdir"
)

const mediaPrefix = "word/media/"

// OutputPrefix is prepended to the document name for the rewritten copy.
const OutputPrefix = "new_"

// Result reports one replacement run.
type Result struct {
	// OutputPath is the rewritten document.
	OutputPath string
	// Replaced lists the media part names that were swapped.
	Replaced []string
}

// Run rewrites docPath with media parts swapped for files found in imagesDir
// and writes the result next to the original as "new_<name>", uniquified. A
// replacement file matches a media part when its name, with any extractor
// ordinal prefix stripped, equals the part's base name. The original document
// is never modified.
func Run(docPath, imagesDir string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	replacements, err := loadReplacements(imagesDir)
	if err != nil {
		return nil, err
	}
	if len(replacements) == 0 {
		return nil, fmt.Errorf("no replacement images in %s", imagesDir)
	}

	r, err := zip.OpenReader(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", docPath, err)
	}
	defer r.Close()

	outPath := workdir.Uniquify(filepath.Join(filepath.Dir(docPath), OutputPrefix+filepath.Base(docPath)))
	outFile, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output document: %w", err)
	}
	defer outFile.Close()

	w := zip.NewWriter(outFile)
	result := &Result{OutputPath: outPath}

	for _, entry := range r.File {
		data, swapped, err := entryData(entry, replacements)
		if err != nil {
			w.Close()
			return nil, err
		}
		if swapped {
			result.Replaced = append(result.Replaced, entry.Name)
			logger.Info("media part replaced", "part", entry.Name)
		}

		header := entry.FileHeader
		f, err := w.CreateHeader(&header)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to write entry %s: %w", entry.Name, err)
		}
		if _, err := f.Write(data); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to write entry %s: %w", entry.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish output document: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish output document: %w", err)
	}

	if len(result.Replaced) == 0 {
		os.Remove(outPath)
		return nil, fmt.Errorf("no replacement matched a media part of %s", docPath)
	}

	logger.Info("document rewritten", "output", outPath, "replaced", len(result.Replaced))
	return result, nil
}

// entryData returns the bytes to write for one zip entry, swapping in the
// replacement when the entry is a matching media part.
func entryData(entry *zip.File, replacements map[string]string) ([]byte, bool, error) {
	if strings.HasPrefix(entry.Name, mediaPrefix) {
		if src, ok := replacements[path.Base(entry.Name)]; ok {
			data, err := os.ReadFile(src)
			if err != nil {
				return nil, false, fmt.Errorf("failed to read replacement %s: %w", src, err)
			}
			return data, true, nil
		}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read entry %s: %w", entry.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read entry %s: %w", entry.Name, err)
	}
	return data, false, nil
}

// loadReplacements indexes imagesDir by target media base name. Extractor
// names like "003_photo.png" index as "photo.png"; names without an ordinal
// prefix index as themselves.
func loadReplacements(imagesDir string) (map[string]string, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list replacement images: %w", err)
	}

	out := make(map[string]string)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		out[stripOrdinal(name)] = filepath.Join(imagesDir, name)
	}
	return out, nil
}

func stripOrdinal(name string) string {
	i := strings.Index(name, "_")
	if i <= 0 {
		return name
	}
	for _, r := range name[:i] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[i+1:]
}
