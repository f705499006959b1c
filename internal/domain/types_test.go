package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueZeroIsMissing(t *testing.T) {
	var v Value
	assert.False(t, v.Valid)
	assert.Equal(t, Missing(), v)

	empty := Present("")
	assert.True(t, empty.Valid, "a present empty cell is not missing")
	assert.NotEqual(t, Missing(), empty)
}

func TestSchemaFirstSeenOrder(t *testing.T) {
	s := NewSchema("A", "B", "A")
	assert.Equal(t, []string{"A", "B"}, s.Names())

	assert.Equal(t, 2, s.Add("C"))
	assert.Equal(t, 0, s.Add("A"))
	assert.Equal(t, []string{"A", "B", "C"}, s.Names())

	i, ok := s.Index("B")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.False(t, s.Has("D"))
	assert.Equal(t, 3, s.Len())
}

func TestSchemaNamesIsCopy(t *testing.T) {
	s := NewSchema("A", "B")
	names := s.Names()
	names[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, s.Names())
}

func TestDatasetLookup(t *testing.T) {
	ds := &Dataset{
		Schema: NewSchema("A", "B", "C"),
		Rows: []Row{
			{Values: []Value{Present("1"), Present("2"), Missing()}},
			{Values: []Value{Present("3")}},
		},
	}

	assert.Equal(t, Present("2"), ds.Lookup(&ds.Rows[0], "B"))
	assert.Equal(t, Missing(), ds.Lookup(&ds.Rows[0], "C"))
	assert.Equal(t, Missing(), ds.Lookup(&ds.Rows[0], "nope"))
	assert.Equal(t, Missing(), ds.Lookup(&ds.Rows[1], "B"), "short row")

	sub := ds.WithRows(ds.Rows[:1])
	assert.Same(t, ds.Schema, sub.Schema)
	assert.Equal(t, 1, sub.Len())
}

func TestRunSummaryAddIssues(t *testing.T) {
	var s RunSummary
	s.AddIssues("merge", []FileError{
		{Path: "/a.csv", Err: errors.New("bad quote")},
		{Path: "/b.csv", Err: errors.New("empty file")},
	})
	require.Len(t, s.Issues, 2)
	assert.Equal(t, Issue{Stage: "merge", Path: "/a.csv", Reason: "bad quote"}, s.Issues[0])
}

func TestFileErrorMessage(t *testing.T) {
	fe := FileError{Path: "/x.csv", Err: errors.New("permission denied")}
	assert.Equal(t, "/x.csv: permission denied", fe.Error())
}
