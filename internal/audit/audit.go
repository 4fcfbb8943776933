// Package audit drives the extraction-recognition-detection pipeline over a
// file mask: for every matched document it stages a fresh work directory,
// extracts embedded images, recognizes text per language and routes stale
// findings. Failures are file-scoped; the batch continues.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/industrialsast/scrtimecheck/internal/document"
	"github.com/industrialsast/scrtimecheck/internal/extract"
	"github.com/industrialsast/scrtimecheck/internal/findings"
	"github.com/industrialsast/scrtimecheck/internal/ocr"
	"github.com/industrialsast/scrtimecheck/internal/recognize"
	"github.com/industrialsast/scrtimecheck/internal/workdir"
)

// Options configures one audit run.
type Options struct {
	// Mask is the document file mask; "**" matches recursively.
	Mask string

	// Cutoff: images whose recognized text carries a date strictly earlier
	// than this are flagged.
	Cutoff time.Time

	// Languages are processed as independent passes per document.
	Languages []string

	// Engine performs recognition.
	Engine ocr.Engine

	// Workers bounds the OCR fan-out; zero means the CPU count.
	Workers int

	// UpscaleFactor scales images before recognition; zero means the default.
	UpscaleFactor int

	// DPI is the assumed image resolution passed to the engine; zero means
	// unknown.
	DPI int

	// OutputDir is the parent for work directories; empty means the current
	// directory.
	OutputDir string

	// LogOutput receives run progress in addition to the per-document log
	// file; nil means stdout.
	LogOutput io.Writer

	Logger *slog.Logger
}

// FileResult is the outcome for one matched document.
type FileResult struct {
	Document string
	WorkDir  string
	Images   int
	Findings []findings.Finding
	Err      error
}

// Report summarizes a run over a mask.
type Report struct {
	Matched int
	Results []FileResult
}

// Flagged returns the results that produced at least one finding.
func (r *Report) Flagged() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Err == nil && len(res.Findings) > 0 {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the results that aborted with an error.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Run expands the mask and audits every matched document. The mask count is
// reported before any directory is created; a mask matching nothing returns
// an empty report and no error. Per-document failures land in the report,
// not in the returned error, which is reserved for cancellation.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := ExpandMask(opts.Mask)
	if err != nil {
		return nil, err
	}

	report := &Report{Matched: len(files)}
	if len(files) == 0 {
		logger.Info("no files found", "mask", opts.Mask)
		return report, nil
	}
	logger.Info("files matched", "mask", opts.Mask, "count", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := checkFile(ctx, file, opts, logger)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			logger.Error("document check failed", "document", file, "error", res.Err)
			continue
		}
		logger.Info("document checked",
			"document", file,
			"images", res.Images,
			"findings", len(res.Findings),
		)
	}

	logSummary(logger, report)
	return report, nil
}

// checkFile runs the full pipeline for one document. Any stage error aborts
// the remaining stages for this file, including later languages.
func checkFile(ctx context.Context, file string, opts Options, logger *slog.Logger) FileResult {
	res := FileResult{Document: file}

	src, err := document.Open(file)
	if err != nil {
		res.Err = err
		return res
	}
	defer src.Close()

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	parent := opts.OutputDir
	if parent == "" {
		parent = "."
	}
	wd, err := workdir.Create(parent, base, opts.Cutoff)
	if err != nil {
		res.Err = err
		return res
	}
	res.WorkDir = wd.Root()

	logFile, err := os.OpenFile(wd.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		res.Err = fmt.Errorf("failed to open run log: %w", err)
		return res
	}
	defer logFile.Close()

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	runLogger := slog.New(slog.NewTextHandler(io.MultiWriter(out, logFile), nil)).
		With("run_id", uuid.New().String(), "document", filepath.Base(file))
	runLogger.Info("check started", "cutoff", opts.Cutoff.Format(workdir.DateFormat))

	if err := wd.EnsureImageDir(); err != nil {
		res.Err = err
		return res
	}
	count, err := extract.Images(src, wd.ImageDir(), runLogger)
	if err != nil {
		res.Err = err
		return res
	}
	res.Images = count
	runLogger.Info("images extracted", "count", count)

	runner := &recognize.Runner{
		Engine:        opts.Engine,
		Workers:       opts.Workers,
		UpscaleFactor: opts.UpscaleFactor,
		DPI:           opts.DPI,
		Logger:        runLogger,
	}
	for _, lang := range opts.Languages {
		if err := wd.EnsureTextDir(lang); err != nil {
			res.Err = err
			return res
		}
		tasks, err := recognize.BuildTasks(wd.ImageDir(), wd.TextDir(lang), lang)
		if err != nil {
			res.Err = err
			return res
		}
		if err := runner.Run(ctx, tasks); err != nil {
			res.Err = err
			return res
		}
		runLogger.Info("recognition pass complete", "language", lang, "tasks", len(tasks))
	}

	if err := wd.EnsureFindingsDir(opts.Cutoff); err != nil {
		res.Err = err
		return res
	}
	found, err := routeFindings(wd, opts.Languages, opts.Cutoff, runLogger)
	if err != nil {
		res.Err = err
		return res
	}
	res.Findings = found

	runLogger.Info("check finished", "findings", len(found))
	return res
}

// routeFindings scans every text artifact of every language pass.
func routeFindings(wd *workdir.Dir, languages []string, cutoff time.Time, logger *slog.Logger) ([]findings.Finding, error) {
	var out []findings.Finding
	for _, lang := range languages {
		textDir := wd.TextDir(lang)
		entries, err := os.ReadDir(textDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list text directory: %w", err)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			textPath := filepath.Join(textDir, name)
			text, err := os.ReadFile(textPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read text artifact: %w", err)
			}
			finding, err := findings.Route(textPath, string(text), cutoff, wd.FindingsDir(cutoff), logger)
			if err != nil {
				return nil, err
			}
			if finding != nil {
				out = append(out, *finding)
			}
		}
	}
	return out, nil
}

func logSummary(logger *slog.Logger, report *Report) {
	flagged := report.Flagged()
	failed := report.Failed()
	logger.Info("run complete",
		"matched", report.Matched,
		"flagged", len(flagged),
		"failed", len(failed),
	)
	for _, res := range flagged {
		dates := map[string]struct{}{}
		for _, f := range res.Findings {
			for _, d := range f.Dates {
				dates[findings.FormatDate(d)] = struct{}{}
			}
		}
		list := make([]string, 0, len(dates))
		for d := range dates {
			list = append(list, d)
		}
		sort.Strings(list)
		logger.Info("stale screenshots found", "document", res.Document, "dates", list)
	}
}
