// Package findings copies images whose recognized text carries stale
// timestamps into the findings directory and reports the deduplicated dates.
package findings

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/industrialsast/scrtimecheck/internal/timestamp"
	"github.com/industrialsast/scrtimecheck/internal/workdir"
)

// Finding is one flagged image with its stale dates.
type Finding struct {
	// ImagePath is the originating extracted image.
	ImagePath string
	// CopiedTo is the file written into the findings directory.
	CopiedTo string
	// Dates are the stale dates, deduplicated and sorted ascending.
	Dates []time.Time
}

// Route scans one text artifact for dates earlier than cutoff. When any are
// found, the originating image (reconstructed from the artifact path through
// the workdir layout) is copied, never moved, into findingsDir. A nil Finding
// means the text carried no stale date.
func Route(textPath, text string, cutoff time.Time, findingsDir string, logger *slog.Logger) (*Finding, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dates := timestamp.FindBefore(text, cutoff)
	if len(dates) == 0 {
		return nil, nil
	}

	// The union of layout templates routinely repeats a calendar value for
	// the same substring; collapse to a set before reporting.
	dates = dedupe(dates)

	imagePath, err := workdir.ImagePathForTextArtifact(textPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("image for text artifact %s is missing: %w", textPath, err)
	}

	// Image names are unique within a run's image directory, so an existing
	// copy is a prior run's routing of this same finding. Leave it; routing
	// must be idempotent across resumed runs.
	dest := filepath.Join(findingsDir, filepath.Base(imagePath))
	if _, err := os.Stat(dest); err != nil {
		if err := copyFile(imagePath, dest); err != nil {
			return nil, fmt.Errorf("failed to copy finding: %w", err)
		}
	}

	logger.Info("stale dates found",
		"image", filepath.Base(imagePath),
		"dates", formatDates(dates),
		"cutoff", cutoff.Format(workdir.DateFormat),
	)

	return &Finding{ImagePath: imagePath, CopiedTo: dest, Dates: dates}, nil
}

// FormatDate renders a date the way findings are logged, regardless of the
// layout template that matched it.
func FormatDate(d time.Time) string {
	return d.Format(workdir.DateFormat)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = FormatDate(d)
	}
	return out
}

func dedupe(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := dates[:0]
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
