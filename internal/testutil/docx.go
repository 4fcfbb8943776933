// Package testutil provides fixture builders shared by package tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
)

// DocxPart describes one embedded media part for a generated docx fixture.
type DocxPart struct {
	Name        string // file name under word/media/
	ContentType string
	Data        []byte
}

// BuildDocx writes a minimal docx container to path with one inline picture
// per part, in the given order. Parts share the fixture's content-type
// defaults unless their extension is unknown, in which case an override entry
// is emitted.
func BuildDocx(t *testing.T, path string, parts []DocxPart) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	writeEntry(t, w, "[Content_Types].xml", contentTypesXML(parts))
	writeEntry(t, w, "word/_rels/document.xml.rels", relsXML(parts))
	writeEntry(t, w, "word/document.xml", documentXML(parts))
	for _, p := range parts {
		writeEntry(t, w, "word/media/"+p.Name, string(p.Data))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish docx fixture: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write docx fixture: %v", err)
	}
}

// PNG returns an encoded width x height gray PNG.
func PNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode fixture PNG: %v", err)
	}
	return buf.Bytes()
}

func writeEntry(t *testing.T, w *zip.Writer, name, content string) {
	t.Helper()
	f, err := w.Create(name)
	if err != nil {
		t.Fatalf("failed to create docx entry %s: %v", name, err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write docx entry %s: %v", name, err)
	}
}

func contentTypesXML(parts []DocxPart) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	for _, p := range parts {
		fmt.Fprintf(&b, `<Override PartName="/word/media/%s" ContentType="%s"/>`, p.Name, p.ContentType)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func relsXML(parts []DocxPart) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, p := range parts {
		fmt.Fprintf(&b,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`,
			i+1, p.Name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func documentXML(parts []DocxPart) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
	b.WriteString(` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
	b.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`)
	for i := range parts {
		fmt.Fprintf(&b, `<w:p><w:r><w:drawing><a:blip r:embed="rId%d"/></w:drawing></w:r></w:p>`, i+1)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}
