package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/audit"
	"github.com/industrialsast/scrtimecheck/internal/config"
	"github.com/industrialsast/scrtimecheck/internal/document"
	"github.com/industrialsast/scrtimecheck/internal/extract"
	"github.com/industrialsast/scrtimecheck/internal/ocr"
	"github.com/industrialsast/scrtimecheck/internal/recognize"
)

var getTextCmd = &cobra.Command{
	Use:   "get-text <file-mask>",
	Short: "Extract images and recognize their text",
	Long: `Extract the embedded images of every document matching the file mask and run
OCR on them, one pass per configured language, without date detection.

Recognized text lands in text/<language>/ inside each document's work
directory, one artifact per image. Already recognized images are skipped.

Examples:
  scrtimecheck get-text report.docx
  scrtimecheck get-text 'reports/*.docx' --languages eng`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
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
			if err := recognizeDocument(cmd, file, cfg, engine, logger); err != nil {
				return err
			}
		}
		return nil
	},
}

func recognizeDocument(cmd *cobra.Command, file string, cfg *config.Config, engine ocr.Engine, logger *slog.Logger) error {
	src, err := document.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	wd, err := createWorkDir(file, cfg.OutputDir, time.Now())
	if err != nil {
		return err
	}
	if err := wd.EnsureImageDir(); err != nil {
		return err
	}
	if _, err := extract.Images(src, wd.ImageDir(), logger); err != nil {
		return err
	}

	runner := &recognize.Runner{
		Engine:        engine,
		Workers:       cfg.Workers,
		UpscaleFactor: cfg.UpscaleFactor,
		DPI:           cfg.OCR.DPI,
		Logger:        logger,
	}
	for _, lang := range cfg.Languages {
		if err := wd.EnsureTextDir(lang); err != nil {
			return err
		}
		tasks, err := recognize.BuildTasks(wd.ImageDir(), wd.TextDir(lang), lang)
		if err != nil {
			return err
		}
		if err := runner.Run(cmd.Context(), tasks); err != nil {
			return err
		}
		logger.Info("text recognized", "document", file, "language", lang, "images", len(tasks))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(getTextCmd)
}
