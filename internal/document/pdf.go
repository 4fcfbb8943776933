package document

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFSource reads embedded image objects from a PDF via pdfcpu. Extraction
// happens into a temporary directory on open; pdfcpu names the files by page
// and object number, so sorting by name preserves document order.
type PDFSource struct {
	path    string
	tempDir string
}

// OpenPDF opens a PDF and extracts its image objects.
func OpenPDF(path string) (*PDFSource, error) {
	tempDir, err := os.MkdirTemp("", "scrtimecheck-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	if err := api.ExtractImagesFile(path, tempDir, nil, nil); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	return &PDFSource{path: path, tempDir: tempDir}, nil
}

// Path returns the document file path.
func (s *PDFSource) Path() string {
	return s.path
}

// Close removes the temporary extraction directory.
func (s *PDFSource) Close() error {
	return os.RemoveAll(s.tempDir)
}

// Parts returns the extracted image objects in document order.
func (s *PDFSource) Parts() ([]Part, error) {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	parts := make([]Part, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.tempDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read extracted image %s: %w", name, err)
		}
		parts = append(parts, Part{
			Name:        name,
			ContentType: contentTypeForExt(filepath.Ext(name)),
			Data:        data,
		})
	}
	return parts, nil
}

func contentTypeForExt(ext string) string {
	if ct := mime.TypeByExtension(strings.ToLower(ext)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
