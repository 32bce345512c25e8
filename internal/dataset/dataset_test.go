package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(n string) Key {
	return Key{Descr: n, OPC: "OPC-" + n, SKU: "SKU-" + n}
}

func snap(index int, keys ...Key) *Snapshot {
	s := &Snapshot{Index: index, Stamp: "01/01/2025", Obs: make(map[Key]Observation)}
	for i, k := range keys {
		s.Keys = append(s.Keys, k)
		s.Obs[k] = Observation{
			ADD:     float64(index) + float64(i)/10,
			OnHand:  Num(float64(10 * index)),
			FreeROD: float64(index),
		}
	}
	return s
}

func TestIncorporateOuterJoin(t *testing.T) {
	ds := New()
	a, b, c := key("A"), key("B"), key("C")

	ds.Incorporate(snap(1, a, b))
	ds.Incorporate(snap(2, b, c))

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []Key{a, b, c}, ds.Keys())
	assert.Equal(t, []int{1, 2}, ds.Indices())

	// b was in both files, a only in the first, c only in the second.
	_, ok := ds.Observation(b, 1)
	assert.True(t, ok)
	_, ok = ds.Observation(b, 2)
	assert.True(t, ok)
	_, ok = ds.Observation(a, 2)
	assert.False(t, ok)
	_, ok = ds.Observation(c, 1)
	assert.False(t, ok)
}

func TestIncorporateSubsetLeavesOtherRowsAlone(t *testing.T) {
	ds := New()
	a, b := key("A"), key("B")
	ds.Incorporate(snap(1, a, b))

	before, ok := ds.Observation(b, 1)
	require.True(t, ok)

	// A file containing only a strict subset of existing keys.
	ds.Incorporate(snap(2, a))

	after, ok := ds.Observation(b, 1)
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, []int{1, 2}, ds.Indices(), "no previously persisted column may be dropped")
	assert.Equal(t, 2, ds.Len())
}

func TestIncorporateNeverOverwrites(t *testing.T) {
	ds := New()
	a := key("A")
	ds.Incorporate(snap(1, a))
	first, _ := ds.Observation(a, 1)

	// Same key and index again: the recorded observation stays.
	dup := snap(1, a)
	dup.Obs[a] = Observation{ADD: 99, OnHand: Num(99), FreeROD: 99}
	ds.Incorporate(dup)

	got, _ := ds.Observation(a, 1)
	assert.Equal(t, first, got)
}

func TestColumnSetOrderIndependent(t *testing.T) {
	a, b := key("A"), key("B")

	forward := New()
	forward.Incorporate(snap(1, a))
	forward.Incorporate(snap(2, b))

	// Same files, opposite ingestion order; indices follow ingestion order
	// so the snapshots swap indices, but the column set is fixed.
	backward := New()
	backward.Incorporate(snap(1, b))
	backward.Incorporate(snap(2, a))

	var forwardCols, backwardCols []string
	for _, c := range forward.Wide().Columns {
		forwardCols = append(forwardCols, c.Name)
	}
	for _, c := range backward.Wide().Columns {
		backwardCols = append(backwardCols, c.Name)
	}
	assert.Equal(t, forwardCols, backwardCols)
}

func TestWideProjection(t *testing.T) {
	ds := New()
	a, b := key("A"), key("B")
	ds.Incorporate(snap(1, a))
	ds.Incorporate(snap(2, a, b))

	w := ds.Wide()
	wantCols := []string{
		"Descr", "OPC", "SKU",
		"ADD_1", "On Hand_1", "Free ROD_1",
		"ADD_2", "On Hand_2", "Free ROD_2",
	}
	var names []string
	for _, c := range w.Columns {
		names = append(names, c.Name)
	}
	require.Equal(t, wantCols, names)
	require.Len(t, w.Rows, 2)

	assert.Equal(t, Str("A"), w.Cell(0, "Descr"))
	assert.Equal(t, Num(1.0), w.Cell(0, "ADD_1"))
	assert.Equal(t, Num(2.0), w.Cell(0, "ADD_2"))

	// b never appeared in file 1: explicit no-data markers, not zeros.
	assert.True(t, w.Cell(1, "ADD_1").IsMissing())
	assert.True(t, w.Cell(1, "On Hand_1").IsMissing())
	assert.True(t, w.Cell(1, "Free ROD_1").IsMissing())
	assert.Equal(t, Num(2.1), w.Cell(1, "ADD_2"))
}

func TestSelectField(t *testing.T) {
	ds := New()
	a := key("A")
	ds.Incorporate(snap(1, a))
	ds.Incorporate(snap(2, a))

	sel := ds.Wide().SelectField("On Hand")
	var names []string
	for _, c := range sel.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Descr", "OPC", "SKU", "On Hand_1", "On Hand_2"}, names)
	require.Len(t, sel.Rows, 1)
	assert.Equal(t, Num(10), sel.Rows[0][3])
	assert.Equal(t, Num(20), sel.Rows[0][4])
}

func TestStampsNextIndex(t *testing.T) {
	s := Stamps{}
	assert.Equal(t, 1, s.NextIndex())

	s.Record(1, "01/01/2025")
	s.Record(5, "02/01/2025")
	assert.Equal(t, 6, s.NextIndex())

	// Entries are never overwritten once written.
	s.Record(1, "31/12/2099")
	assert.Equal(t, "01/01/2025", s[1])
}
