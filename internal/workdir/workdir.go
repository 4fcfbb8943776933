// Package workdir manages the on-disk staging layout for one document's
// analysis run. The layout doubles as the pipeline's cache and audit trail,
// so the subdirectory names below are a versioned contract: the findings
// router reverses text-artifact paths back to image paths through them.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ImageDirName holds extracted embedded images.
	ImageDirName = "img"

	// TextDirName holds per-language recognized text, one subdirectory per
	// language identifier.
	TextDirName = "text"

	// FindingsDirPrefix prefixes the findings directory; the cutoff date is
	// appended in ISO form.
	FindingsDirPrefix = "found_before_"

	// TextArtifactExt is the suffix appended after the language segment of a
	// text artifact name.
	TextArtifactExt = ".txt"

	// LogFileName is the per-run append-only log inside the work root.
	LogFileName = "scrtimecheck.log"

	// DateFormat is the ISO calendar date layout used in directory names.
	DateFormat = "2006-01-02"
)

// Dir represents the work directory tree for one document run.
type Dir struct {
	root string
}

// Create returns the work root for a document under parent, derived from the
// document base name and the cutoff date. An existing tree with that name is
// reused as-is: the tree is the pipeline's cache, and re-running the same
// document and date must resume where the previous run stopped.
func Create(parent, baseName string, cutoff time.Time) (*Dir, error) {
	root := filepath.Join(parent, fmt.Sprintf("%s_%s", baseName, cutoff.Format(DateFormat)))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Open wraps an existing work root without creating anything. Used by the
// standalone get-text and parse commands that operate on a prior run's tree.
func Open(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the work root path.
func (d *Dir) Root() string {
	return d.root
}

// ImageDir returns the extracted-images directory path.
func (d *Dir) ImageDir() string {
	return filepath.Join(d.root, ImageDirName)
}

// TextDir returns the recognized-text directory for a language.
func (d *Dir) TextDir(language string) string {
	return filepath.Join(d.root, TextDirName, language)
}

// FindingsDir returns the findings directory for a cutoff date.
func (d *Dir) FindingsDir(cutoff time.Time) string {
	return filepath.Join(d.root, FindingsDirPrefix+cutoff.Format(DateFormat))
}

// LogPath returns the run log file path.
func (d *Dir) LogPath() string {
	return filepath.Join(d.root, LogFileName)
}

// EnsureImageDir creates the images directory if absent.
func (d *Dir) EnsureImageDir() error {
	return os.MkdirAll(d.ImageDir(), 0o755)
}

// EnsureTextDir creates the text directory for a language if absent.
func (d *Dir) EnsureTextDir(language string) error {
	return os.MkdirAll(d.TextDir(language), 0o755)
}

// EnsureFindingsDir creates the findings directory for a cutoff if absent.
func (d *Dir) EnsureFindingsDir(cutoff time.Time) error {
	return os.MkdirAll(d.FindingsDir(cutoff), 0o755)
}

// TextArtifactPath returns the recognized-text path for an image file name in
// a language: <root>/text/<lang>/<image>.<lang>.txt.
func (d *Dir) TextArtifactPath(language, imageName string) string {
	return TextArtifactPath(d.TextDir(language), language, imageName)
}

// TextArtifactPath builds the text-artifact path inside an explicit
// per-language directory.
func TextArtifactPath(textLangDir, language, imageName string) string {
	return filepath.Join(textLangDir, imageName+"."+language+TextArtifactExt)
}

// ImagePathForTextArtifact reverses TextArtifactPath: given
// <root>/text/<lang>/<image>.<lang>.txt it returns <root>/img/<image>.
// The reversal depends on the layout constants above and fails if the path
// does not follow them.
func ImagePathForTextArtifact(textPath string) (string, error) {
	langDir := filepath.Dir(textPath)
	language := filepath.Base(langDir)
	textDir := filepath.Dir(langDir)
	if filepath.Base(textDir) != TextDirName {
		return "", fmt.Errorf("text artifact %s is not under a %s/<language> directory", textPath, TextDirName)
	}

	name := filepath.Base(textPath)
	suffix := "." + language + TextArtifactExt
	if !strings.HasSuffix(name, suffix) {
		return "", fmt.Errorf("text artifact %s does not carry the %s suffix", textPath, suffix)
	}
	imageName := strings.TrimSuffix(name, suffix)

	root := filepath.Dir(textDir)
	return filepath.Join(root, ImageDirName, imageName), nil
}

// Uniquify returns path if it does not exist, otherwise the first free
// variant with a numeric "(n)" disambiguator inserted before the extension.
func Uniquify(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
