// Package domain defines the core types shared by every pipeline stage:
// source and staged files, the merged column schema, rows, and datasets.
package domain

import "time"

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

// SourceFile is a discovered data file together with the settlement date
// extracted from its name.
type SourceFile struct {
	Path string
	Date time.Time
}

// StagedFile is a SourceFile after placement into the flat staging
// directory. Reused is set when an identical file from an earlier run was
// already present at StagedPath and no copy was made.
type StagedFile struct {
	OriginalPath string
	StagedPath   string
	Date         time.Time
	Reused       bool
}

// FileError records a non-fatal problem with a single file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

// ---------------------------------------------------------------------------
// Values and schema
// ---------------------------------------------------------------------------

// Value is a single cell. The zero Value is missing: the column did not
// exist in the row's source file. A present but empty cell has Valid set
// and an empty Text.
type Value struct {
	Text  string
	Valid bool
}

// Present returns a non-missing Value holding s.
func Present(s string) Value {
	return Value{Text: s, Valid: true}
}

// Missing returns the explicit missing marker.
func Missing() Value {
	return Value{}
}

// Schema is an ordered set of column names. Columns are appended in
// first-seen order and never removed or reordered.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema returns a schema holding the given names in order; duplicates
// after the first occurrence are ignored.
func NewSchema(names ...string) *Schema {
	s := &Schema{index: make(map[string]int, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add appends name if it is not yet present and returns its position.
func (s *Schema) Add(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	s.names = append(s.names, name)
	s.index[name] = len(s.names) - 1
	return len(s.names) - 1
}

// Index returns the position of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether name is part of the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns a copy of the column names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// ---------------------------------------------------------------------------
// Rows and datasets
// ---------------------------------------------------------------------------

// Row is one source record projected onto a Schema. Values is aligned with
// the schema's column order. File and Line identify where the record came
// from (catalog position of the staged file and line within it) and are
// used only to break timestamp ties. Timestamp is zero until the row has
// been normalized.
type Row struct {
	Values    []Value
	Timestamp time.Time
	File      int
	Line      int
}

// Dataset is an ordered sequence of rows sharing one schema.
type Dataset struct {
	Schema *Schema
	Rows   []Row
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Lookup returns the value of column for row. Unknown columns and rows
// shorter than the schema yield the missing marker.
func (d *Dataset) Lookup(row *Row, column string) Value {
	i, ok := d.Schema.Index(column)
	if !ok || i >= len(row.Values) {
		return Missing()
	}
	return row.Values[i]
}

// WithRows returns a dataset sharing d's schema with the given rows.
func (d *Dataset) WithRows(rows []Row) *Dataset {
	return &Dataset{Schema: d.Schema, Rows: rows}
}
