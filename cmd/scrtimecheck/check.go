package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/audit"
)

var checkCmd = &cobra.Command{
	Use:   "check <file-mask> <date>",
	Short: "Check documents for screenshots older than a date",
	Long: `Check every document matching the file mask for embedded screenshots whose
on-screen timestamps are earlier than the given date.

The mask may be a plain path, a shell pattern, or use ** for recursive
matching. Flagged images are copied into a found_before_<date> folder inside
each document's work directory.

Examples:
  scrtimecheck check report.docx 2021-01-10
  scrtimecheck check 'reports/*.docx' 2021-01-10
  scrtimecheck check 'audits/**/*.pdf' 2022-06-01 --languages eng`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := parseCutoff(args[1])
		if err != nil {
			return err
		}

		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}

		report, err := audit.Run(cmd.Context(), audit.Options{
			Mask:          args[0],
			Cutoff:        cutoff,
			Languages:     cfg.Languages,
			Engine:        engine,
			Workers:       cfg.Workers,
			UpscaleFactor: cfg.UpscaleFactor,
			DPI:           cfg.OCR.DPI,
			OutputDir:     cfg.OutputDir,
			LogOutput:     os.Stdout,
			Logger:        newLogger(),
		})
		if err != nil {
			return err
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d documents failed", len(failed), report.Matched)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
