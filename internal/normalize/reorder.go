package normalize

import (
	"fmt"
	"time"

	"ercotdata/internal/domain"
)

// DefaultTimestampLayouts are tried, in order, by Reorder.
var DefaultTimestampLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	time.DateOnly,
}

// Reorder sorts an already merged dataset by a column that holds a full
// timestamp, such as the "Hour Ending" column of a previously exported
// dataset. Rows whose column is missing or unparsable are dropped and
// counted, as in Normalize.
func Reorder(ds *domain.Dataset, column string, layouts []string) (*Result, error) {
	if !ds.Schema.Has(column) {
		return nil, &MissingColumnsError{Columns: []string{column}}
	}
	if len(layouts) == 0 {
		layouts = DefaultTimestampLayouts
	}

	res := &Result{}
	rows := make([]domain.Row, 0, len(ds.Rows))
	for i := range ds.Rows {
		row := ds.Rows[i]
		v := ds.Lookup(&row, column)
		if !v.Valid {
			res.Dropped++
			continue
		}
		ts, err := ParseDate(v.Text, layouts)
		if err != nil {
			res.Dropped++
			continue
		}
		row.Timestamp = ts
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return res, fmt.Errorf("%w (%d dropped)", ErrNoRowsSurvived, res.Dropped)
	}

	SortChronological(rows)
	res.Dataset = ds.WithRows(rows)
	return res, nil
}
