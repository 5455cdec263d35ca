package main

import (
	"fmt"

	"github.com/siherrmann/inscriber"
	"github.com/spf13/cobra"
)

var (
	graphMerged bool
	graphFormat string
)

var graphCmd = &cobra.Command{
	Use:   "graph <manifest-url> [output-dir]",
	Short: "Write the inscription graph of one manifest",
	Long: `Recognize entities on every page and write the inscription graph, one
file per page or, with --merged, one <label> file for the whole container.

Examples:
  inscriber graph <manifest-url> ./graphs
  inscriber graph <manifest-url> ./graphs --merged --format nt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, logger, err := newInscriber(cmd)
		if err != nil {
			return err
		}
		defer finish(i, logger)

		paths, err := i.WriteGraph(cmd.Context(), args[0], outDir(i, args, 1), inscriber.GraphOptions{
			Merged: graphMerged,
			Format: graphFormat,
		})
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().BoolVar(&graphMerged, "merged", false, "write one graph for the whole container")
	graphCmd.Flags().StringVar(&graphFormat, "format", "ttl", "graph format: ttl or nt")
}
