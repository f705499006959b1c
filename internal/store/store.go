// Package store persists pipeline output: the final dataset in CSV,
// Parquet or XLSX form, a Parquet manifest of staged files, and a SQLite
// ledger of run summaries.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ercotdata/internal/domain"
)

// DatasetWriter persists a dataset to a single file.
type DatasetWriter interface {
	// WriteDataset writes ds to path, creating parent directories.
	WriteDataset(ctx context.Context, path string, ds *domain.Dataset) error
}

// RunLedger records pipeline runs.
type RunLedger interface {
	// SaveRun stores a run summary with its staged files, discards and
	// issues.
	SaveRun(ctx context.Context, run *domain.RunSummary) error

	// ListRuns returns the most recent runs first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}

// WriteOptions are shared by the dataset writers.
type WriteOptions struct {
	// Index adds a leading unnamed column holding the 0-based row number.
	// Parquet output ignores it.
	Index bool
}

// NewDatasetWriter returns the writer for format: "csv", "parquet" or
// "xlsx".
func NewDatasetWriter(format string, opts WriteOptions) (DatasetWriter, error) {
	switch format {
	case "", "csv":
		return &CSVWriter{Index: opts.Index}, nil
	case "parquet":
		return &ParquetWriter{}, nil
	case "xlsx":
		return &XLSXWriter{Index: opts.Index}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
