package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/audit"
	"github.com/industrialsast/scrtimecheck/internal/document"
	"github.com/industrialsast/scrtimecheck/internal/extract"
	"github.com/industrialsast/scrtimecheck/internal/workdir"
)

var saveCmd = &cobra.Command{
	Use:   "save <file-mask>",
	Short: "Extract embedded images without checking them",
	Long: `Extract the embedded images of every document matching the file mask into a
work directory, without running OCR or date detection.

The work directory is named after the document and today's date, so a later
check of the same document picks up the already extracted images.

Examples:
  scrtimecheck save report.docx
  scrtimecheck save 'reports/*.docx' --output-dir /tmp/audits`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger()

		files, err := audit.ExpandMask(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			logger.Info("no files found", "mask", args[0])
			return nil
		}

		for _, file := range files {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := saveImages(file, cfg.OutputDir, logger); err != nil {
				return err
			}
		}
		return nil
	},
}

func saveImages(file, outputDir string, logger *slog.Logger) error {
	src, err := document.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	wd, err := createWorkDir(file, outputDir, time.Now())
	if err != nil {
		return err
	}
	if err := wd.EnsureImageDir(); err != nil {
		return err
	}

	count, err := extract.Images(src, wd.ImageDir(), logger)
	if err != nil {
		return err
	}
	logger.Info("images saved", "document", file, "count", count, "dir", wd.ImageDir())
	return nil
}

func createWorkDir(file, outputDir string, stamp time.Time) (*workdir.Dir, error) {
	parent := outputDir
	if parent == "" {
		parent = "."
	}
	return workdir.Create(parent, documentBase(file), stamp)
}

// documentBase is the document file name without its extension.
func documentBase(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
