package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ercotdata/internal/domain"
)

func hubDataset() *domain.Dataset {
	ds := &domain.Dataset{Schema: domain.NewSchema("SettlementPoint", "Price")}
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []string{"HB_NORTH", "HB_SOUTH", "HB_WEST", "HB_SOUTH", "HB_NORTH", "HB_WEST"}
	for i, p := range points {
		ds.Rows = append(ds.Rows, domain.Row{
			Values:    []domain.Value{domain.Present(p), domain.Present("10")},
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	// A row from a vintage without the location column.
	ds.Rows = append(ds.Rows, domain.Row{
		Values:    []domain.Value{domain.Missing(), domain.Present("11")},
		Timestamp: base.Add(10 * time.Hour),
	})
	return ds
}

func TestByLocation(t *testing.T) {
	ds := hubDataset()

	got := ByLocation(ds, "SettlementPoint", []string{"HB_NORTH", "HB_WEST"})
	require.Equal(t, 4, got.Len())

	south := 0
	for i := range got.Rows {
		p := got.Lookup(&got.Rows[i], "SettlementPoint").Text
		assert.Contains(t, []string{"HB_NORTH", "HB_WEST"}, p)
		if p == "HB_SOUTH" {
			south++
		}
		if i > 0 {
			assert.True(t, got.Rows[i].Timestamp.After(got.Rows[i-1].Timestamp), "order preserved")
		}
	}
	assert.Zero(t, south)
	assert.Same(t, ds.Schema, got.Schema)
}

func TestByLocationExactMatch(t *testing.T) {
	got := ByLocation(hubDataset(), "SettlementPoint", []string{"hb_north", "HB_NORTH "})
	assert.Equal(t, 0, got.Len())
}

func TestByLocationEmptyAllowSet(t *testing.T) {
	got := ByLocation(hubDataset(), "SettlementPoint", nil)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}

func TestByLocationUnknownColumn(t *testing.T) {
	got := ByLocation(hubDataset(), "Node", []string{"HB_NORTH"})
	assert.Equal(t, 0, got.Len())
}

func TestCountDistinct(t *testing.T) {
	assert.Equal(t, 3, CountDistinct(hubDataset(), "SettlementPoint"))
	assert.Equal(t, 0, CountDistinct(hubDataset(), "Node"))
}
