package replace

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/industrialsast/scrtimecheck/internal/testutil"
)

func buildFixture(t *testing.T, dir string) string {
	t.Helper()
	docPath := filepath.Join(dir, "report.docx")
	testutil.BuildDocx(t, docPath, []testutil.DocxPart{
		{Name: "photo1.png", ContentType: "image/png", Data: []byte("old-photo-1")},
		{Name: "photo2.png", ContentType: "image/png", Data: []byte("old-photo-2")},
	})
	return docPath
}

func readEntry(t *testing.T, zipPath, name string) []byte {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	t.Fatalf("entry %s not found in %s", name, zipPath)
	return nil
}

func TestRun_SwapsMatchingMedia(t *testing.T) {
	dir := t.TempDir()
	docPath := buildFixture(t, dir)

	imagesDir := filepath.Join(dir, "img")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Extractor-style name with ordinal prefix.
	if err := os.WriteFile(filepath.Join(imagesDir, "1_photo1.png"), []byte("new-photo-1"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Run(docPath, imagesDir, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := filepath.Join(dir, "new_report.docx")
	if res.OutputPath != want {
		t.Errorf("output %s, want %s", res.OutputPath, want)
	}
	if len(res.Replaced) != 1 || res.Replaced[0] != "word/media/photo1.png" {
		t.Errorf("replaced: %v", res.Replaced)
	}

	if got := readEntry(t, res.OutputPath, "word/media/photo1.png"); string(got) != "new-photo-1" {
		t.Errorf("photo1 content: %q", got)
	}
	if got := readEntry(t, res.OutputPath, "word/media/photo2.png"); string(got) != "old-photo-2" {
		t.Errorf("photo2 was modified: %q", got)
	}
	// Markup entries survive the rewrite.
	if got := readEntry(t, res.OutputPath, "word/document.xml"); len(got) == 0 {
		t.Error("document.xml is empty")
	}

	// The original is untouched.
	if got := readEntry(t, docPath, "word/media/photo1.png"); string(got) != "old-photo-1" {
		t.Errorf("original was modified: %q", got)
	}
}

func TestRun_BareNameMatches(t *testing.T) {
	dir := t.TempDir()
	docPath := buildFixture(t, dir)

	imagesDir := filepath.Join(dir, "img")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "photo2.png"), []byte("new-photo-2"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Run(docPath, imagesDir, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := readEntry(t, res.OutputPath, "word/media/photo2.png"); string(got) != "new-photo-2" {
		t.Errorf("photo2 content: %q", got)
	}
}

func TestRun_OutputNameCollision(t *testing.T) {
	dir := t.TempDir()
	docPath := buildFixture(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "new_report.docx"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	imagesDir := filepath.Join(dir, "img")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(imagesDir, "1_photo1.png"), []byte("new-photo-1"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Run(docPath, imagesDir, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.OutputPath != filepath.Join(dir, "new_report(1).docx") {
		t.Errorf("output %s", res.OutputPath)
	}
}

func TestRun_NoMatches(t *testing.T) {
	dir := t.TempDir()
	docPath := buildFixture(t, dir)

	imagesDir := filepath.Join(dir, "img")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Run("empty replacement dir", func(t *testing.T) {
		if _, err := Run(docPath, imagesDir, nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("nothing matches a media part", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(imagesDir, "unrelated.png"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Run(docPath, imagesDir, nil); err == nil {
			t.Error("expected error")
		}
		// A failed run leaves no partial output behind.
		if _, err := os.Stat(filepath.Join(dir, "new_report.docx")); !os.IsNotExist(err) {
			t.Errorf("partial output left behind: %v", err)
		}
	})
}
