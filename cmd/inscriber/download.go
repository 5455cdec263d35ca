package main

import (
	"fmt"

	"github.com/siherrmann/inscriber"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <manifest-url>",
	Short: "Download the page images of one manifest into the image cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, logger, err := newInscriber(cmd, inscriber.WithoutAnnotator())
		if err != nil {
			return err
		}
		defer finish(i, logger)

		report, err := i.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, path := range report.Paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		for canvas, failure := range report.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "failed %s: %v\n", canvas, failure)
		}
		return nil
	},
}
