package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/findings"
	"github.com/industrialsast/scrtimecheck/internal/timestamp"
)

var parseCmd = &cobra.Command{
	Use:   "parse <text-file> [date]",
	Short: "Scan a text file for dates",
	Long: `Scan a recognized-text file for dates in the supported layouts and print
them. With a date argument, only dates strictly earlier than it are printed;
without one, every plausible date is.

Useful for inspecting a single text artifact from a work directory without
re-running the whole check.

Examples:
  scrtimecheck parse report_2021-01-10/text/eng/1_photo.png.eng.txt
  scrtimecheck parse sample.txt 2021-01-10`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read text file: %w", err)
		}

		var dates []string
		seen := map[string]struct{}{}
		if len(args) == 2 {
			cutoff, err := parseCutoff(args[1])
			if err != nil {
				return err
			}
			for _, d := range timestamp.FindBefore(string(data), cutoff) {
				key := findings.FormatDate(d)
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					dates = append(dates, key)
				}
			}
		} else {
			for _, c := range timestamp.Match(string(data)) {
				if !timestamp.Plausible(c.Date) {
					continue
				}
				key := findings.FormatDate(c.Date)
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					dates = append(dates, key)
				}
			}
		}

		if len(dates) == 0 {
			fmt.Println("no dates found")
			return nil
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
