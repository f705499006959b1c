// Package main provides the ercot-ingest command: it catalogs extracted
// ERCOT day-ahead market files, stages them into one flat directory, merges
// their schemas, orders rows chronologically, and writes the result.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ercotdata/internal/config"
	"ercotdata/internal/pipeline"
	"ercotdata/internal/store"
	"ercotdata/internal/util"
)

var rootCmd = &cobra.Command{
	Use:           "ercot-ingest",
	Short:         "ERCOT day-ahead market archive ingestion",
	Long:          "ercot-ingest turns a tree of extracted ERCOT CSV files into one chronologically ordered dataset, tolerating renamed columns, colliding file names and malformed files.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config (default $ERCOT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path from the flag or ERCOT_CONFIG and
// applies the log level override.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("ERCOT_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// setup loads the config and builds the logger and pipeline. When
// withLedger is set and a ledger path is configured, the ledger is opened
// and must be closed by the caller.
func setup(withLedger bool) (*config.Config, *slog.Logger, *pipeline.Pipeline, *store.SQLiteLedger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	var ledger *store.SQLiteLedger
	opts := pipeline.Options{Logger: logger}
	if withLedger && cfg.Ledger.SQLitePath != "" {
		ledger, err = store.NewSQLiteLedger(cfg.Ledger.SQLitePath)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening ledger: %w", err)
		}
		opts.Ledger = ledger
	}

	p, err := pipeline.New(cfg, opts)
	if err != nil {
		if ledger != nil {
			ledger.Close()
		}
		return nil, nil, nil, nil, err
	}
	return cfg, logger, p, ledger, nil
}
