package main

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/inscriber"
	"github.com/spf13/cobra"
)

var skipExisting bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <manifest-url> [output-dir]",
	Short: "Dump every page of one manifest",
	Long: `Fetch a IIIF manifest and write txt, csv, jsonl and ttl files for every
page into <output-dir>/<container label>/.

Pages that fail are reported and skipped. The command only fails when the
manifest cannot be loaded or the output directory cannot be created.

Examples:
  inscriber analyze https://figgy.princeton.edu/concern/scanned_resources/<id>/manifest
  inscriber analyze <manifest-url> ./out --skip-existing -v`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, logger, err := newInscriber(cmd)
		if err != nil {
			return err
		}
		defer finish(i, logger)

		result, err := i.Dump(cmd.Context(), args[0], outDir(i, args, 1), inscriber.DumpOptions{SkipExisting: skipExisting})
		if err != nil {
			return err
		}
		printDumpResult(cmd, result)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip containers that already have a ttl file for every page")
}

func printDumpResult(cmd *cobra.Command, result *inscriber.DumpResult) {
	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintf(out, "skipped %s (already exported)\n", result.URI)
		return
	}
	report := result.Report
	fmt.Fprintf(out, "%s: %d pages, %d files, %d failed pages -> %s\n",
		report.Label, len(report.Pages), report.Written(), report.Failed(), report.Dir)
	for _, page := range report.Pages {
		if err := page.Err(); err != nil {
			slog.Warn("Page failed", slog.String("page", page.PageID), slog.String("error", err.Error()))
		}
	}
	if result.StoreErr != nil {
		fmt.Fprintf(out, "  not stored: %v\n", result.StoreErr)
	}
}
