package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/config"
	"github.com/industrialsast/scrtimecheck/internal/ocr"
	"github.com/industrialsast/scrtimecheck/internal/workdir"
	"github.com/industrialsast/scrtimecheck/version"
)

var (
	cfgFile   string
	outputDir string
	languages []string
	workers   int
	upscale   int
)

var rootCmd = &cobra.Command{
	Use:   "scrtimecheck",
	Short: "Audit document screenshots for stale on-screen timestamps",
	Long: `ScrTimeCheck extracts the images embedded in office documents, recognizes
their text with OCR and flags screenshots whose on-screen timestamps predate a
given cutoff date.

The pipeline for each document:
  - Extract embedded images into a per-document work directory
  - Recognize image text, one pass per configured language
  - Scan the recognized text for dates in several layouts
  - Copy images carrying dates earlier than the cutoff into a findings folder

Work directories double as a cache: re-running a check skips images whose text
has already been recognized.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.scrtimecheck/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputDir, "output-dir", "", "parent directory for work directories (default: current directory)",
	)
	rootCmd.PersistentFlags().StringSliceVar(
		&languages, "languages", nil, "OCR languages (default from config: eng,rus)",
	)
	rootCmd.PersistentFlags().IntVar(
		&workers, "workers", 0, "OCR worker count (default: number of CPUs)",
	)
	rootCmd.PersistentFlags().IntVar(
		&upscale, "upscale", 0, "image upscale factor before OCR (default from config)",
	)

	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the effective configuration: file and environment first,
// then explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Manager, *config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	cfg := mgr.Get()

	if cmd.Flags().Changed("languages") {
		cfg.Languages = languages
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("upscale") {
		cfg.UpscaleFactor = upscale
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	return mgr, cfg, nil
}

func newEngine(cfg *config.Config) (ocr.Engine, error) {
	engine, err := ocr.New(cfg.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to set up OCR engine: %w", err)
	}
	return engine, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// parseCutoff accepts the date format used throughout the work directory
// layout, 2006-01-02.
func parseCutoff(arg string) (time.Time, error) {
	cutoff, err := time.Parse(workdir.DateFormat, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", arg)
	}
	return cutoff, nil
}
