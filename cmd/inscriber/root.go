package main

import (
	"log/slog"

	"github.com/siherrmann/inscriber"
	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/helper"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	verbosity   int
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "inscriber",
	Short: "Extract named entities from digitized IIIF manuscripts",
	Long: `Inscriber reads IIIF presentation manifests, obtains the text of every
page from a text rendering or by OCR, recognizes named entities and writes
them as text, OCR tables, sentences and RDF inscription graphs.

Per page it writes:
  - <page>.txt    reconstructed text
  - <page>.csv    OCR token table
  - <page>.jsonl  sentences with container metadata
  - <page>.ttl    inscriptions in Turtle`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./inscriber.yaml or ~/.inscriber/inscriber.yaml)",
	)
	rootCmd.PersistentFlags().CountVarP(
		&verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug)",
	)
	rootCmd.PersistentFlags().StringVar(
		&metricsFile, "metrics-file", "", "write prometheus metrics to this file after the run",
	)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func logLevel(verbosity int) slog.Level {
	switch {
	case verbosity >= 2:
		return slog.LevelDebug
	case verbosity == 1:
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}
	return cfg, nil
}

// newInscriber loads the configuration and creates an Inscriber logging to stderr.
func newInscriber(cmd *cobra.Command, opts ...inscriber.Option) (*inscriber.Inscriber, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := helper.NewLogger(cmd.ErrOrStderr(), logLevel(verbosity))
	slog.SetDefault(logger)

	i, err := inscriber.New(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return i, logger, nil
}

// finish writes the metrics file and releases the inscriber.
func finish(i *inscriber.Inscriber, logger *slog.Logger) {
	if err := i.WriteMetrics(); err != nil {
		logger.Warn("Failed to write metrics", slog.String("error", err.Error()))
	}
	if err := i.Close(); err != nil {
		logger.Warn("Failed to close", slog.String("error", err.Error()))
	}
}

// outDir returns args[index] or the configured output directory.
func outDir(i *inscriber.Inscriber, args []string, index int) string {
	if len(args) > index {
		return args[index]
	}
	return i.Config.OutputDir
}
