package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/inscriber"
	"github.com/siherrmann/inscriber/helper"
	"github.com/spf13/cobra"
)

var batchSkipExisting bool

var batchCmd = &cobra.Command{
	Use:   "batch <list-file> [output-dir]",
	Short: "Dump every manifest listed in a file",
	Long: `Read one manifest URL per line from <list-file> and dump each of them.
Blank lines and lines starting with # are ignored. Failing manifests are
logged and skipped; an output directory that cannot be created stops the run.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return helper.NewError("open manifest list", err)
		}
		uris, err := inscriber.ReadManifestList(f)
		_ = f.Close()
		if err != nil {
			return err
		}

		i, logger, err := newInscriber(cmd)
		if err != nil {
			return err
		}
		defer finish(i, logger)

		batch, err := i.DumpAll(cmd.Context(), uris, outDir(i, args, 1), inscriber.DumpOptions{SkipExisting: batchSkipExisting})
		for _, result := range batch.Results {
			printDumpResult(cmd, result)
		}
		for uri, failure := range batch.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "failed %s: %v\n", uri, failure)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d manifests processed\n", len(batch.Results), len(uris))
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchSkipExisting, "skip-existing", false, "skip containers that already have a ttl file for every page")
}
