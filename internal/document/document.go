// Package document provides read-only access to the embedded picture parts of
// a compound document. Sources yield parts in document order; the pipeline
// treats any part whose content type does not start with "image" as
// non-image and skips it.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for file types without a source
// implementation.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Part is one embedded binary part of a document.
type Part struct {
	// Name is the part's file name inside the container (base name only).
	Name string
	// ContentType is the declared MIME-like content type.
	ContentType string
	// Data is the raw binary content.
	Data []byte
}

// IsImage reports whether the part declares image content.
func (p Part) IsImage() bool {
	return strings.HasPrefix(p.ContentType, "image")
}

// Source is an opened compound document.
type Source interface {
	// Path returns the document file path.
	Path() string

	// Parts enumerates embedded picture parts in document order.
	Parts() ([]Part, error)

	// Close releases resources held by the source.
	Close() error
}

// Open opens a document by path, selecting the source implementation from the
// file extension.
func Open(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".docm":
		return OpenDocx(path)
	case ".pdf":
		return OpenPDF(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
