package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/audit"
	"github.com/industrialsast/scrtimecheck/internal/config"
	"github.com/industrialsast/scrtimecheck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <directory> <date>",
	Short: "Check documents as they appear in a directory",
	Long: `Watch a directory and check every document dropped into it against the given
cutoff date, as soon as the file finishes writing.

Configuration is hot-reloaded: editing the config file while watching picks up
changed languages or OCR settings for subsequent documents.

Examples:
  scrtimecheck watch ./incoming 2021-01-10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := parseCutoff(args[1])
		if err != nil {
			return err
		}

		mgr, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		logger := newLogger()

		w := &watch.Watcher{
			Dir: args[0],
			Options: audit.Options{
				Cutoff:        cutoff,
				Languages:     cfg.Languages,
				Engine:        engine,
				Workers:       cfg.Workers,
				UpscaleFactor: cfg.UpscaleFactor,
				DPI:           cfg.OCR.DPI,
				OutputDir:     cfg.OutputDir,
				LogOutput:     os.Stdout,
			},
			Logger: logger,
		}

		mgr.OnChange(func(updated *config.Config) {
			logger.Info("configuration reloaded", "languages", updated.Languages)
			w.UpdateOptions(func(o *audit.Options) {
				o.Languages = updated.Languages
				o.Workers = updated.Workers
				o.UpscaleFactor = updated.UpscaleFactor
			})
		})
		mgr.WatchConfig()

		return w.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
