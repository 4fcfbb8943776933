// Package recognize builds and executes OCR work units over an image
// directory. Execution is idempotent: a non-empty text artifact counts as
// done and is never recomputed, which is the pipeline's sole resume
// mechanism. Zero-byte artifacts count as not yet produced and are redone.
package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/industrialsast/scrtimecheck/internal/ocr"
	"github.com/industrialsast/scrtimecheck/internal/workdir"
)

// Task is one pending (image, language) unit of OCR work.
type Task struct {
	ImagePath string
	TextPath  string
	Language  string
}

// BuildTasks pairs every regular file in imageDir with a text-artifact path
// under textLangDir. It does not pre-filter by cache state; the idempotency
// check happens per task at execution time.
func BuildTasks(imageDir, textLangDir, language string) ([]Task, error) {
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list image directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, Task{
			ImagePath: filepath.Join(imageDir, name),
			TextPath:  workdir.TextArtifactPath(textLangDir, language, name),
			Language:  language,
		})
	}
	return tasks, nil
}

// Done reports whether a text artifact already exists with content.
func Done(textPath string) bool {
	fi, err := os.Stat(textPath)
	return err == nil && fi.Size() > 0
}

// Runner executes recognition tasks against an OCR engine.
type Runner struct {
	Engine ocr.Engine

	// Workers bounds the fan-out; zero or negative means runtime.NumCPU().
	Workers int

	// UpscaleFactor scales images before recognition; zero means the default 2x.
	UpscaleFactor int

	// DPI is passed to the engine as the assumed image resolution; zero means
	// unknown.
	DPI int

	// Attempts bounds retries per OCR invocation; zero means 3.
	Attempts uint

	Logger *slog.Logger
}

// Run executes the task batch. Tasks fan out across a bounded worker pool;
// completion order is unspecified and irrelevant since every task writes a
// distinct output path. The first task failure is returned after all
// in-flight tasks finish.
func (r *Runner) Run(ctx context.Context, tasks []Task) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type result struct {
		task Task
		err  error
	}

	results := make(chan result, len(tasks))
	sem := make(chan struct{}, workers)

	for _, task := range tasks {
		sem <- struct{}{} // acquire
		go func(task Task) {
			defer func() { <-sem }() // release
			results <- result{task: task, err: r.process(ctx, task, logger)}
		}(task)
	}

	var firstErr error
	for range tasks {
		res := <-results
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("recognition of %s (%s) failed: %w",
				filepath.Base(res.task.ImagePath), res.task.Language, res.err)
		}
	}
	return firstErr
}

// process runs one task: cache check, load, upscale, recognize, write.
func (r *Runner) process(ctx context.Context, task Task, logger *slog.Logger) error {
	if Done(task.TextPath) {
		logger.Debug("text artifact cached", "file", filepath.Base(task.TextPath))
		return nil
	}

	data, err := os.ReadFile(task.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	factor := r.UpscaleFactor
	if factor == 0 {
		factor = ocr.DefaultUpscaleFactor
	}
	upscaled, err := ocr.Upscale(data, factor)
	if err != nil {
		return fmt.Errorf("failed to upscale image: %w", err)
	}

	attempts := r.Attempts
	if attempts == 0 {
		attempts = 3
	}

	var text string
	err = retry.Do(
		func() error {
			var rerr error
			text, rerr = r.Engine.Recognize(ctx, ocr.Input{Image: upscaled, Language: task.Language, DPI: r.DPI})
			return rerr
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("ocr failed: %w", err)
	}

	// An empty recognition result is a normal outcome; the absent artifact
	// simply means the image is retried on the next run.
	if text == "" {
		logger.Debug("no text recognized", "image", filepath.Base(task.ImagePath), "language", task.Language)
		return nil
	}

	if err := writeAtomic(task.TextPath, []byte(text)); err != nil {
		return fmt.Errorf("failed to write text artifact: %w", err)
	}
	logger.Debug("text artifact written", "file", filepath.Base(task.TextPath), "bytes", len(text))
	return nil
}

// writeAtomic writes via a temporary sibling and renames it into place so a
// crash mid-write never leaves a partial artifact that would satisfy the
// cache check.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
