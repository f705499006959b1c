// Package normalize derives an absolute timestamp for every merged row from
// its settlement date and hour-ending label, drops rows where that fails,
// and sorts the dataset chronologically.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"ercotdata/internal/domain"
)

// ErrNoRowsSurvived is returned when every row was dropped.
var ErrNoRowsSurvived = errors.New("no rows survived normalization")

// MissingColumnsError reports required columns absent from the schema.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "required columns missing from schema: " + strings.Join(e.Columns, ", ")
}

// Options configure a Normalizer.
type Options struct {
	DateColumn  string
	HourColumn  string
	DateLayouts []string
	Logger      *slog.Logger
}

// Normalizer converts hour-ending rows into chronological order.
type Normalizer struct {
	opts Options
	log  *slog.Logger
}

// Result is the sorted dataset and the number of rows dropped.
type Result struct {
	Dataset *domain.Dataset
	Dropped int
}

// NewNormalizer returns a Normalizer with the given options.
func NewNormalizer(opts Options) *Normalizer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{opts: opts, log: log}
}

// Normalize stamps every row with date + (hour ending - 1) hours and
// returns the surviving rows stably sorted by that timestamp, ties broken
// by source file position and line. Rows with an unparsable or missing
// date or hour label are dropped and counted. The input dataset is not
// modified.
func (n *Normalizer) Normalize(ds *domain.Dataset) (*Result, error) {
	var missing []string
	for _, col := range []string{n.opts.DateColumn, n.opts.HourColumn} {
		if !ds.Schema.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	res := &Result{}
	rows := make([]domain.Row, 0, len(ds.Rows))
	for i := range ds.Rows {
		row := ds.Rows[i]
		ts, err := n.timestamp(ds, &row)
		if err != nil {
			res.Dropped++
			n.log.Debug("dropping row", "file", row.File, "line", row.Line, "reason", err)
			continue
		}
		row.Timestamp = ts
		rows = append(rows, row)
	}

	if res.Dropped > 0 {
		n.log.Warn("dropped rows without a derivable timestamp", "count", res.Dropped)
	}
	if len(rows) == 0 {
		return res, fmt.Errorf("%w (%d dropped)", ErrNoRowsSurvived, res.Dropped)
	}

	SortChronological(rows)
	res.Dataset = ds.WithRows(rows)

	n.log.Info("normalization complete",
		"rows", len(rows),
		"dropped", res.Dropped,
		"first", rows[0].Timestamp.Format(time.DateTime),
		"last", rows[len(rows)-1].Timestamp.Format(time.DateTime),
	)
	return res, nil
}

func (n *Normalizer) timestamp(ds *domain.Dataset, row *domain.Row) (time.Time, error) {
	dv := ds.Lookup(row, n.opts.DateColumn)
	if !dv.Valid {
		return time.Time{}, fmt.Errorf("%s missing", n.opts.DateColumn)
	}
	hv := ds.Lookup(row, n.opts.HourColumn)
	if !hv.Valid {
		return time.Time{}, fmt.Errorf("%s missing", n.opts.HourColumn)
	}

	date, err := ParseDate(dv.Text, n.opts.DateLayouts)
	if err != nil {
		return time.Time{}, err
	}
	h, err := ParseHourEnding(hv.Text)
	if err != nil {
		return time.Time{}, err
	}
	return HourStart(date, h), nil
}

// SortChronological stably sorts rows by timestamp, then source file
// position, then line.
func SortChronological(rows []domain.Row) {
	slices.SortStableFunc(rows, func(a, b domain.Row) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if a.File != b.File {
			return a.File - b.File
		}
		return a.Line - b.Line
	})
}
