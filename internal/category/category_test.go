package category_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skusheet/internal/category"
	"skusheet/internal/config"
	"skusheet/internal/dataset"
)

func rules(t *testing.T) map[string]category.Rule {
	t.Helper()
	out := make(map[string]category.Rule)
	for _, r := range config.Default().Categories {
		out[r.Name] = r
	}
	require.Contains(t, out, "FSV")
	require.Contains(t, out, "SF_PUCK")
	return out
}

func TestMatches(t *testing.T) {
	byName := rules(t)

	tests := []struct {
		descr  string
		fsv    bool
		sfPuck bool
	}{
		{"FSV-100", true, false},
		{"PUCK-2", false, true},
		{"SF WIDGET", false, true},
		{"plain item", false, false},
		{"fsv lowercase", false, false}, // matching is case-sensitive
		{"FSV SF combo", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.descr, func(t *testing.T) {
			assert.Equal(t, tt.fsv, byName["FSV"].Matches(tt.descr))
			assert.Equal(t, tt.sfPuck, byName["SF_PUCK"].Matches(tt.descr))
		})
	}
}

func testTable() dataset.Table {
	ds := dataset.New()
	snap := &dataset.Snapshot{Index: 1, Obs: make(map[dataset.Key]dataset.Observation)}
	for i, descr := range []string{"FSV-100", "PUCK-2", "plain item"} {
		k := dataset.Key{Descr: descr, OPC: "O", SKU: string(rune('a' + i))}
		snap.Keys = append(snap.Keys, k)
		snap.Obs[k] = dataset.Observation{ADD: float64(i), OnHand: dataset.Num(1), FreeROD: 0}
	}
	ds.Incorporate(snap)
	return ds.Wide()
}

func TestFilter(t *testing.T) {
	byName := rules(t)
	table := testTable()

	fsv := category.Filter(table, byName["FSV"])
	require.Len(t, fsv.Rows, 1)
	assert.Equal(t, "FSV-100", fsv.Cell(0, "Descr").Text)
	assert.Equal(t, table.Columns, fsv.Columns, "filtering preserves column shape")

	puck := category.Filter(table, byName["SF_PUCK"])
	require.Len(t, puck.Rows, 1)
	assert.Equal(t, "PUCK-2", puck.Cell(0, "Descr").Text)

	// A rule matching nothing yields an empty table, same columns.
	none := category.Filter(table, category.Rule{Name: "X", Match: []string{"NOPE"}})
	assert.Empty(t, none.Rows)
	assert.Equal(t, table.Columns, none.Columns)
}

func TestExtract(t *testing.T) {
	byName := rules(t)
	table := testTable()

	got := category.Extract(table, byName["FSV"], "ADD")
	var names []string
	for _, c := range got.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Descr", "OPC", "SKU", "ADD_1"}, names)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, dataset.Num(0), got.Rows[0][3])
}
