// Package filter narrows a normalized dataset to selected settlement
// points.
package filter

import "ercotdata/internal/domain"

// ByLocation returns the rows whose column value exactly matches one of
// allowed, in input order. Rows where the column is missing never match,
// and an empty allowed list yields an empty dataset.
func ByLocation(ds *domain.Dataset, column string, allowed []string) *domain.Dataset {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	rows := make([]domain.Row, 0)
	if len(set) == 0 {
		return ds.WithRows(rows)
	}
	for i := range ds.Rows {
		v := ds.Lookup(&ds.Rows[i], column)
		if !v.Valid {
			continue
		}
		if _, ok := set[v.Text]; ok {
			rows = append(rows, ds.Rows[i])
		}
	}
	return ds.WithRows(rows)
}

// CountDistinct returns the number of distinct present values in column.
func CountDistinct(ds *domain.Dataset, column string) int {
	seen := make(map[string]struct{})
	for i := range ds.Rows {
		if v := ds.Lookup(&ds.Rows[i], column); v.Valid {
			seen[v.Text] = struct{}{}
		}
	}
	return len(seen)
}
