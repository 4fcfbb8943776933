package recognize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/industrialsast/scrtimecheck/internal/ocr"
	"github.com/industrialsast/scrtimecheck/internal/testutil"
)

func imageDirFixture(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	png := testutil.PNG(t, 8, 8)
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), png, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBuildTasks(t *testing.T) {
	imageDir := imageDirFixture(t, "2_b.png", "1_a.png")
	textDir := t.TempDir()

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	// Sorted by image name; text path appends .<language>.txt.
	if filepath.Base(tasks[0].ImagePath) != "1_a.png" {
		t.Errorf("first task image %s", tasks[0].ImagePath)
	}
	wantText := filepath.Join(textDir, "1_a.png.eng.txt")
	if tasks[0].TextPath != wantText {
		t.Errorf("text path %s, want %s", tasks[0].TextPath, wantText)
	}
	if tasks[0].Language != "eng" {
		t.Errorf("language %s", tasks[0].Language)
	}
}

func TestBuildTasks_DoesNotPrefilterCachedWork(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png")
	textDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(textDir, "1_a.png.eng.txt"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 {
		t.Errorf("cache state must not shrink the task set, got %d tasks", len(tasks))
	}
}

func TestDone(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if Done(filepath.Join(dir, "absent.txt")) {
			t.Error("missing artifact reported done")
		}
	})

	t.Run("zero-byte file counts as not yet produced", func(t *testing.T) {
		p := filepath.Join(dir, "empty.txt")
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if Done(p) {
			t.Error("zero-byte artifact reported done")
		}
	})

	t.Run("non-empty file", func(t *testing.T) {
		p := filepath.Join(dir, "full.txt")
		if err := os.WriteFile(p, []byte("text"), 0o644); err != nil {
			t.Fatal(err)
		}
		if !Done(p) {
			t.Error("non-empty artifact reported not done")
		}
	})
}

func TestRunner_WritesArtifacts(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png", "2_b.png")
	textDir := t.TempDir()
	engine := &ocr.Mock{Text: "recognized 11/01/2021"}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}

	runner := &Runner{Engine: engine, Workers: 2}
	if err := runner.Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"1_a.png.eng.txt", "2_b.png.eng.txt"} {
		data, err := os.ReadFile(filepath.Join(textDir, name))
		if err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
		if string(data) != "recognized 11/01/2021" {
			t.Errorf("%s content mismatch", name)
		}
	}
	if engine.Calls() != 2 {
		t.Errorf("engine invoked %d times, want 2", engine.Calls())
	}
}

func TestRunner_SecondRunIsIdempotent(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png", "2_b.png")
	textDir := t.TempDir()
	engine := &ocr.Mock{Text: "stable text"}
	runner := &Runner{Engine: engine}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if err := runner.Run(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(filepath.Join(textDir, "1_a.png.eng.txt"))
	if err != nil {
		t.Fatal(err)
	}

	// Rebuild and rerun: no additional OCR invocations, unchanged artifacts.
	tasks, err = BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if err := runner.Run(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}

	if engine.Calls() != 2 {
		t.Errorf("second run triggered OCR: %d calls, want 2", engine.Calls())
	}
	after, err := os.ReadFile(filepath.Join(textDir, "1_a.png.eng.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("artifact changed across idempotent reruns")
	}
}

func TestRunner_ZeroByteArtifactIsRedone(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png")
	textDir := t.TempDir()
	stale := filepath.Join(textDir, "1_a.png.eng.txt")
	if err := os.WriteFile(stale, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	engine := &ocr.Mock{Text: "redone"}
	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if err := (&Runner{Engine: engine}).Run(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}

	if engine.Calls() != 1 {
		t.Errorf("zero-byte artifact should force a redo, got %d calls", engine.Calls())
	}
	data, _ := os.ReadFile(stale)
	if string(data) != "redone" {
		t.Errorf("artifact content %q", data)
	}
}

func TestRunner_EmptyRecognitionWritesNothing(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png")
	textDir := t.TempDir()
	engine := &ocr.Mock{Text: ""}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if err := (&Runner{Engine: engine}).Run(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(textDir)
	if len(entries) != 0 {
		t.Errorf("empty recognition produced %d artifacts", len(entries))
	}
}

// captureEngine records the inputs it receives.
type captureEngine struct {
	mu     sync.Mutex
	inputs []ocr.Input
}

func (c *captureEngine) Name() string { return "capture" }

func (c *captureEngine) Recognize(_ context.Context, in ocr.Input) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, in)
	return "text", nil
}

func TestRunner_PassesDPIToEngine(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png")
	textDir := t.TempDir()
	engine := &captureEngine{}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	if err := (&Runner{Engine: engine, DPI: 300}).Run(context.Background(), tasks); err != nil {
		t.Fatal(err)
	}

	if len(engine.inputs) != 1 {
		t.Fatalf("engine saw %d inputs, want 1", len(engine.inputs))
	}
	if engine.inputs[0].DPI != 300 {
		t.Errorf("engine saw DPI %d, want 300", engine.inputs[0].DPI)
	}
	if engine.inputs[0].Language != "eng" {
		t.Errorf("engine saw language %s", engine.inputs[0].Language)
	}
}

func TestRunner_EngineFailurePropagates(t *testing.T) {
	imageDir := imageDirFixture(t, "1_a.png")
	textDir := t.TempDir()
	engineErr := errors.New("unreadable image")
	engine := &ocr.Mock{Err: engineErr}

	tasks, err := BuildTasks(imageDir, textDir, "eng")
	if err != nil {
		t.Fatal(err)
	}
	err = (&Runner{Engine: engine, Attempts: 2}).Run(context.Background(), tasks)
	if !errors.Is(err, engineErr) {
		t.Errorf("expected engine error to propagate, got %v", err)
	}
	if engine.Calls() != 2 {
		t.Errorf("expected 2 attempts, got %d", engine.Calls())
	}
}
