package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
)

const (
	contentTypesPart = "[Content_Types].xml"
	documentPart     = "word/document.xml"
	documentRelsPart = "word/_rels/document.xml.rels"
)

// DocxSource reads embedded images from an OOXML word-processing document.
// A docx file is a zip container; inline pictures appear in word/document.xml
// as drawing blips referencing relationship IDs, which resolve through the
// document relationships part to media files.
type DocxSource struct {
	path   string
	reader *zip.ReadCloser
}

// OpenDocx opens a docx container for part enumeration.
func OpenDocx(path string) (*DocxSource, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx container: %w", err)
	}
	return &DocxSource{path: path, reader: r}, nil
}

// Path returns the document file path.
func (s *DocxSource) Path() string {
	return s.path
}

// Close closes the underlying zip reader.
func (s *DocxSource) Close() error {
	return s.reader.Close()
}

// Parts returns the document's inline pictures in document order. Each blip
// occurrence yields one part, so a picture reused in the body appears as many
// times as it is placed.
func (s *DocxSource) Parts() ([]Part, error) {
	types, err := s.contentTypes()
	if err != nil {
		return nil, err
	}
	rels, err := s.relationships()
	if err != nil {
		return nil, err
	}
	embeds, err := s.blipEmbeds()
	if err != nil {
		return nil, err
	}

	parts := make([]Part, 0, len(embeds))
	for _, id := range embeds {
		target, ok := rels[id]
		if !ok {
			return nil, fmt.Errorf("document references unknown relationship %s", id)
		}
		data, err := s.readEntry(target)
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", target, err)
		}
		parts = append(parts, Part{
			Name:        path.Base(target),
			ContentType: types.lookup(target),
			Data:        data,
		})
	}
	return parts, nil
}

type docxContentTypes struct {
	defaults  map[string]string // by lowercase extension, without dot
	overrides map[string]string // by absolute part name
}

func (t docxContentTypes) lookup(target string) string {
	if ct, ok := t.overrides["/"+target]; ok {
		return ct
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(target), "."))
	return t.defaults[ext]
}

func (s *DocxSource) contentTypes() (docxContentTypes, error) {
	var doc struct {
		Defaults []struct {
			Extension   string `xml:"Extension,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Default"`
		Overrides []struct {
			PartName    string `xml:"PartName,attr"`
			ContentType string `xml:"ContentType,attr"`
		} `xml:"Override"`
	}
	if err := s.decodeEntry(contentTypesPart, &doc); err != nil {
		return docxContentTypes{}, err
	}

	types := docxContentTypes{
		defaults:  make(map[string]string, len(doc.Defaults)),
		overrides: make(map[string]string, len(doc.Overrides)),
	}
	for _, d := range doc.Defaults {
		types.defaults[strings.ToLower(d.Extension)] = d.ContentType
	}
	for _, o := range doc.Overrides {
		types.overrides[o.PartName] = o.ContentType
	}
	return types, nil
}

// relationships maps relationship IDs to container-relative part paths.
func (s *DocxSource) relationships() (map[string]string, error) {
	var doc struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := s.decodeEntry(documentRelsPart, &doc); err != nil {
		return nil, err
	}

	rels := make(map[string]string, len(doc.Relationships))
	for _, r := range doc.Relationships {
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			// Targets are relative to the word/ part.
			target = path.Join("word", target)
		}
		rels[r.ID] = target
	}
	return rels, nil
}

// blipEmbeds scans word/document.xml and returns the relationship IDs of all
// drawing blips in the order they occur.
func (s *DocxSource) blipEmbeds() ([]string, error) {
	rc, err := s.openEntry(documentPart)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var embeds []string
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document body: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "blip" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "embed" {
				embeds = append(embeds, attr.Value)
				break
			}
		}
	}
	return embeds, nil
}

func (s *DocxSource) openEntry(name string) (io.ReadCloser, error) {
	for _, f := range s.reader.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("container entry %s not found", name)
}

func (s *DocxSource) readEntry(name string) ([]byte, error) {
	rc, err := s.openEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *DocxSource) decodeEntry(name string, v any) error {
	rc, err := s.openEntry(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("malformed %s: %w", name, err)
	}
	return nil
}
