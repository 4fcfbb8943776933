package workdir

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreate(t *testing.T) {
	parent := t.TempDir()
	cutoff := date(2021, time.January, 10)

	dir, err := Create(parent, "report", cutoff)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := filepath.Join(parent, "report_2021-01-10")
	if dir.Root() != want {
		t.Errorf("root: got %s, want %s", dir.Root(), want)
	}
	if _, err := os.Stat(dir.Root()); err != nil {
		t.Errorf("work root was not created: %v", err)
	}
}

func TestCreate_ReusesExistingRoot(t *testing.T) {
	parent := t.TempDir()
	cutoff := date(2021, time.January, 10)

	first, err := Create(parent, "report", cutoff)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	// Leave a cached artifact behind and re-create: the tree is the cache, so
	// the same document and date must come back to the same root.
	if err := first.EnsureImageDir(); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(first.ImageDir(), "1_photo.png")
	if err := os.WriteFile(marker, []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := Create(parent, "report", cutoff)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.Root() != first.Root() {
		t.Fatalf("second run moved to %s, want %s", second.Root(), first.Root())
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("cached artifact lost: %v", err)
	}
}

func TestDir_Paths(t *testing.T) {
	dir := Open("/tmp/report_2021-01-10")
	cutoff := date(2021, time.January, 10)

	t.Run("ImageDir", func(t *testing.T) {
		if got := dir.ImageDir(); got != "/tmp/report_2021-01-10/img" {
			t.Errorf("got %s", got)
		}
	})
	t.Run("TextDir", func(t *testing.T) {
		if got := dir.TextDir("eng"); got != "/tmp/report_2021-01-10/text/eng" {
			t.Errorf("got %s", got)
		}
	})
	t.Run("FindingsDir", func(t *testing.T) {
		if got := dir.FindingsDir(cutoff); got != "/tmp/report_2021-01-10/found_before_2021-01-10" {
			t.Errorf("got %s", got)
		}
	})
	t.Run("TextArtifactPath", func(t *testing.T) {
		want := "/tmp/report_2021-01-10/text/eng/001_photo.png.eng.txt"
		if got := dir.TextArtifactPath("eng", "001_photo.png"); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}

func TestImagePathForTextArtifact(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		dir := Open("/data/report_2021-01-10")
		textPath := dir.TextArtifactPath("eng", "001_photo.png")

		got, err := ImagePathForTextArtifact(textPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "/data/report_2021-01-10/img/001_photo.png"
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("image name containing dots", func(t *testing.T) {
		got, err := ImagePathForTextArtifact("/w/text/rus/02_screen.v2.png.rus.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "/w/img/02_screen.v2.png" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("rejects path outside layout", func(t *testing.T) {
		if _, err := ImagePathForTextArtifact("/w/other/eng/a.png.eng.txt"); err == nil {
			t.Error("expected error for path outside text/<language>/")
		}
	})

	t.Run("rejects mismatched language suffix", func(t *testing.T) {
		if _, err := ImagePathForTextArtifact("/w/text/eng/a.png.rus.txt"); err == nil {
			t.Error("expected error for suffix not matching directory language")
		}
	})
}

func TestUniquify(t *testing.T) {
	tmp := t.TempDir()

	t.Run("free path unchanged", func(t *testing.T) {
		p := filepath.Join(tmp, "free.png")
		if got := Uniquify(p); got != p {
			t.Errorf("got %s, want %s", got, p)
		}
	})

	t.Run("suffix inserted before extension", func(t *testing.T) {
		p := filepath.Join(tmp, "taken.png")
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		want := filepath.Join(tmp, "taken(1).png")
		if got := Uniquify(p); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("counter advances past existing variants", func(t *testing.T) {
		p := filepath.Join(tmp, "multi.png")
		for _, name := range []string{"multi.png", "multi(1).png", "multi(2).png"} {
			if err := os.WriteFile(filepath.Join(tmp, name), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		want := filepath.Join(tmp, "multi(3).png")
		if got := Uniquify(p); got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})
}
