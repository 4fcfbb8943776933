package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/industrialsast/scrtimecheck/internal/replace"
)

var replaceCmd = &cobra.Command{
	Use:   "replace <document> <images-dir>",
	Short: "Replace embedded images with updated screenshots",
	Long: `Rewrite a docx document with embedded images swapped for the files found in
a replacement directory, writing the result as new_<name> next to the
original.

Replacement files keep the names the extractor produced (an ordinal prefix
plus the media file name), so a re-captured screenshot maps back to the media
part it replaces. The original document is never modified.

Examples:
  scrtimecheck replace report.docx report_2021-01-10/img`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := replace.Run(args[0], args[1], newLogger())
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d parts replaced)\n", res.OutputPath, len(res.Replaced))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replaceCmd)
}
