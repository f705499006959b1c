package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"ercotdata/internal/domain"
)

// Compile-time interface check.
var _ DatasetWriter = (*ParquetWriter)(nil)

// rowBatch is the number of rows handed to the Parquet writer at once.
const rowBatch = 4096

// ---------------------------------------------------------------------------
// Dataset output
// ---------------------------------------------------------------------------

// ParquetWriter writes datasets to a Parquet file with one optional string
// column per schema column. Missing values become nulls, so the distinction
// between an absent column and an empty cell survives the round trip.
type ParquetWriter struct{}

// WriteDataset implements DatasetWriter.
func (w *ParquetWriter) WriteDataset(ctx context.Context, path string, ds *domain.Dataset) (err error) {
	schema, leaf := datasetSchema(ds.Schema)

	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	pw := parquet.NewWriter(f, schema)
	batch := make([]parquet.Row, 0, rowBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.WriteRows(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for i := range ds.Rows {
		batch = append(batch, parquetRow(ds.Rows[i].Values, leaf))
		if len(batch) == rowBatch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return fmt.Errorf("writing parquet rows: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	return pw.Close()
}

// datasetSchema builds a Parquet schema for s. Parquet orders group fields
// by name, so leaf[i] gives the Parquet column index of schema column i.
func datasetSchema(s *domain.Schema) (*parquet.Schema, []int) {
	names := s.Names()
	group := make(parquet.Group, len(names))
	for _, name := range names {
		group[name] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("dataset", group)

	byName := make(map[string]int, len(names))
	for i, path := range schema.Columns() {
		byName[path[0]] = i
	}
	leaf := make([]int, len(names))
	for i, name := range names {
		leaf[i] = byName[name]
	}
	return schema, leaf
}

func parquetRow(values []domain.Value, leaf []int) parquet.Row {
	row := make(parquet.Row, len(leaf))
	for i, col := range leaf {
		if i < len(values) && values[i].Valid {
			row[col] = parquet.ByteArrayValue([]byte(values[i].Text)).Level(0, 1, col)
		} else {
			row[col] = parquet.NullValue().Level(0, 0, col)
		}
	}
	return row
}

// ---------------------------------------------------------------------------
// Staging manifest
// ---------------------------------------------------------------------------

// ManifestRecord is the Parquet schema for one staged file.
type ManifestRecord struct {
	Position   int32  `parquet:"position"`
	SourcePath string `parquet:"source_path"`
	StagedPath string `parquet:"staged_path"`
	Date       int64  `parquet:"date,timestamp(millisecond)"` // Unix ms
	Reused     bool   `parquet:"reused"`
}

// WriteManifest writes the staged files, in catalog order, to path.
func WriteManifest(path string, staged []domain.StagedFile) error {
	records := make([]ManifestRecord, len(staged))
	for i, s := range staged {
		records[i] = ManifestRecord{
			Position:   int32(i),
			SourcePath: s.OriginalPath,
			StagedPath: s.StagedPath,
			Date:       s.Date.UnixMilli(),
			Reused:     s.Reused,
		}
	}
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) ([]domain.StagedFile, error) {
	records, err := readParquetFile[ManifestRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	staged := make([]domain.StagedFile, len(records))
	for i, r := range records {
		staged[i] = domain.StagedFile{
			OriginalPath: r.SourcePath,
			StagedPath:   r.StagedPath,
			Date:         time.UnixMilli(r.Date).UTC(),
			Reused:       r.Reused,
		}
	}
	return staged, nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
