package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"ercotdata/internal/domain"
)

// Compile-time interface check.
var _ DatasetWriter = (*CSVWriter)(nil)

// CSVWriter writes datasets as comma-separated text with a header row.
// Missing values are written as empty fields.
type CSVWriter struct {
	Index bool
}

// WriteDataset implements DatasetWriter.
func (w *CSVWriter) WriteDataset(ctx context.Context, path string, ds *domain.Dataset) (err error) {
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

	bw := bufio.NewWriterSize(f, 1<<20)
	cw := csv.NewWriter(bw)

	header := ds.Schema.Names()
	if w.Index {
		header = append([]string{""}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := range ds.Rows {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		off := 0
		if w.Index {
			record[0] = strconv.Itoa(i)
			off = 1
		}
		vals := ds.Rows[i].Values
		for j := 0; j < ds.Schema.Len(); j++ {
			record[off+j] = ""
			if j < len(vals) && vals[j].Valid {
				record[off+j] = vals[j].Text
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
