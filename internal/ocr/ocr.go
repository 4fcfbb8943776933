// Package ocr defines the optical-character-recognition boundary and its
// engine implementations. Engines are best-effort: an empty result is a
// normal outcome, not an error.
package ocr

import (
	"context"
	"fmt"
)

// Input is a single image submitted for recognition.
type Input struct {
	// Image is the encoded image payload (PNG or JPEG).
	Image []byte
	// Language is the trained-data identifier, e.g. "eng" or "rus".
	Language string
	// DPI is the effective dots-per-inch; zero means unknown.
	DPI int
}

// Engine recognizes text on one image at a time. Implementations must be safe
// for concurrent use.
type Engine interface {
	// Name returns the engine identifier (e.g. "tesseract", "openai").
	Name() string

	// Recognize extracts text from an image. The returned text may be empty.
	Recognize(ctx context.Context, in Input) (string, error)
}

// Config selects and configures an engine.
type Config struct {
	// Engine is the engine identifier: "tesseract" (default) or "openai".
	Engine string

	OpenAI OpenAIConfig
}

// New constructs the configured engine.
func New(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case "", EngineNameTesseract:
		return NewTesseractEngine(), nil
	case EngineNameOpenAI:
		return NewOpenAIEngine(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine: %s", cfg.Engine)
	}
}
