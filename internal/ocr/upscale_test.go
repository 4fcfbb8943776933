package ocr

import (
	"bytes"
	"image"
	"testing"

	"github.com/industrialsast/scrtimecheck/internal/testutil"
)

func TestUpscale(t *testing.T) {
	src := testutil.PNG(t, 40, 30)

	out, err := Upscale(src, 2)
	if err != nil {
		t.Fatalf("Upscale failed: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "png" {
		t.Errorf("output format %s, want png", format)
	}
	if cfg.Width != 80 || cfg.Height != 60 {
		t.Errorf("got %dx%d, want 80x60", cfg.Width, cfg.Height)
	}
}

func TestUpscale_FactorBelowTwoIsPassthrough(t *testing.T) {
	src := testutil.PNG(t, 10, 10)
	out, err := Upscale(src, 1)
	if err != nil {
		t.Fatalf("Upscale failed: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Error("factor 1 should return the input unchanged")
	}
}

func TestUpscale_RejectsGarbage(t *testing.T) {
	if _, err := Upscale([]byte("not an image"), 2); err == nil {
		t.Error("expected decode error")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{name: "default is tesseract", cfg: Config{}, want: EngineNameTesseract},
		{name: "tesseract", cfg: Config{Engine: "tesseract"}, want: EngineNameTesseract},
		{name: "openai", cfg: Config{Engine: "openai"}, want: EngineNameOpenAI},
		{name: "unknown", cfg: Config{Engine: "paddle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if engine.Name() != tt.want {
				t.Errorf("got engine %s, want %s", engine.Name(), tt.want)
			}
		})
	}
}
