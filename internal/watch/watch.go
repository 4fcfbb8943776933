// Package watch audits documents as they appear in a directory. New files
// matching the supported document formats are checked with the configured
// audit options as soon as they finish writing.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/industrialsast/scrtimecheck/internal/audit"
)

// settleInterval is how long a file must keep a stable size before it is
// considered fully written. Office exports and network copies arrive in
// chunks; checking a half-written zip fails on the central directory.
const settleInterval = 500 * time.Millisecond

// defaultDebounce suppresses the burst of Create and Write events a single
// chunked copy produces, so one dropped document triggers one audit.
const defaultDebounce = 5 * time.Second

// Watcher audits documents dropped into a directory.
type Watcher struct {
	// Dir is the watched directory. Subdirectories are not watched.
	Dir string

	// Options is the audit template; Mask is replaced per document.
	Options audit.Options

	// Debounce is the per-path quiet period; events for a path audited within
	// it are dropped. Zero means the default of 5s.
	Debounce time.Duration

	Logger *slog.Logger

	mu      sync.Mutex
	audited map[string]time.Time
}

// shouldAudit records an audit attempt for path and reports whether it is
// outside the debounce window of the previous one.
func (w *Watcher) shouldAudit(path string, now time.Time) bool {
	debounce := w.Debounce
	if debounce == 0 {
		debounce = defaultDebounce
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.audited == nil {
		w.audited = make(map[string]time.Time)
	}
	if last, ok := w.audited[path]; ok && now.Sub(last) < debounce {
		return false
	}
	w.audited[path] = now
	return true
}

// UpdateOptions applies fn to the audit template. Safe to call while Run is
// active; the next document picks up the change.
func (w *Watcher) UpdateOptions(fn func(*audit.Options)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.Options)
}

// Run watches until the context is cancelled. Audit failures are logged and
// watching continues; only watcher setup and cancellation end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fi, err := os.Stat(w.Dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", w.Dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", w.Dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	logger.Info("watching for documents", "dir", w.Dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !supportedDocument(event.Name) {
				continue
			}
			if !w.shouldAudit(event.Name, time.Now()) {
				continue
			}
			w.check(ctx, event.Name, logger)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) check(ctx context.Context, path string, logger *slog.Logger) {
	if err := waitSettled(ctx, path); err != nil {
		logger.Warn("document never settled", "document", path, "error", err)
		return
	}

	w.mu.Lock()
	opts := w.Options
	w.mu.Unlock()
	opts.Mask = path
	opts.Logger = logger

	report, err := audit.Run(ctx, opts)
	if err != nil {
		logger.Error("audit aborted", "document", path, "error", err)
		return
	}
	for _, res := range report.Failed() {
		logger.Error("document check failed", "document", res.Document, "error", res.Err)
	}
}

// waitSettled blocks until path keeps a stable size across one interval.
func waitSettled(ctx context.Context, path string) error {
	var lastSize int64 = -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settleInterval):
		}

		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if fi.Size() == lastSize {
			return nil
		}
		lastSize = fi.Size()
	}
}

func supportedDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".docm", ".pdf":
		return true
	}
	return false
}
