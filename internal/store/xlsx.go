package store

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"ercotdata/internal/domain"
)

// Compile-time interface check.
var _ DatasetWriter = (*XLSXWriter)(nil)

// xlsxSheet is the worksheet that receives the dataset.
const xlsxSheet = "Sheet1"

// XLSXWriter writes datasets to a single Excel worksheet through the
// streaming API. Missing values are left as empty cells.
type XLSXWriter struct {
	Index bool
}

// WriteDataset implements DatasetWriter. Datasets that do not fit in one
// worksheet are rejected before anything is written.
func (w *XLSXWriter) WriteDataset(ctx context.Context, path string, ds *domain.Dataset) error {
	if ds.Len()+1 > excelize.TotalRows {
		return fmt.Errorf("xlsx: %d rows exceed the worksheet limit of %d", ds.Len(), excelize.TotalRows-1)
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return err
	}

	width := ds.Schema.Len()
	if w.Index {
		width++
	}

	header := make([]interface{}, 0, width)
	if w.Index {
		header = append(header, "")
	}
	for _, name := range ds.Schema.Names() {
		header = append(header, name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i := range ds.Rows {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cells := make([]interface{}, 0, width)
		if w.Index {
			cells = append(cells, i)
		}
		vals := ds.Rows[i].Values
		for j := 0; j < ds.Schema.Len(); j++ {
			if j < len(vals) && vals[j].Valid {
				cells = append(cells, vals[j].Text)
			} else {
				cells = append(cells, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return f.SaveAs(path)
}
