package dataset

import (
	"fmt"
	"sort"
)

// Reference field names. Together they form the join key for a product row.
var RefFields = []string{"Descr", "OPC", "SKU"}

// Data field names, in output order.
var DataFields = []string{"ADD", "On Hand", "Free ROD"}

// Key identifies a product row across all ingested files.
type Key struct {
	Descr string
	OPC   string
	SKU   string
}

// ValueKind discriminates the three cell states.
type ValueKind uint8

const (
	// Missing marks a cell with no observation (key absent from that file).
	Missing ValueKind = iota
	// Number is a normalized numeric cell.
	Number
	// Text is a pass-through non-numeric cell (On Hand markers, reference fields).
	Text
)

// Value is a single cell: a number, a text fragment, or nothing.
// Missing is distinct from zero so that "key absent from file" never
// collides with a real observation.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
}

// NoData is the explicit "no data" marker.
var NoData = Value{}

func Num(f float64) Value { return Value{Kind: Number, Num: f} }

func Str(s string) Value { return Value{Kind: Text, Text: s} }

// IsMissing reports whether the cell is the "no data" marker.
func (v Value) IsMissing() bool { return v.Kind == Missing }

// String renders the cell the way it appears in an output sheet.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return fmt.Sprintf("%g", v.Num)
	case Text:
		return v.Text
	default:
		return ""
	}
}

// Observation holds one file's three data values for one key.
// ADD and FreeROD are always normalized floats; OnHand may carry
// non-numeric markers through unchanged.
type Observation struct {
	ADD     float64
	OnHand  Value
	FreeROD float64
}

// Snapshot is the normalized content of one ingested file: the assigned
// file index, the file's display timestamp, observations keyed by product,
// and the key order as it appeared in the file.
type Snapshot struct {
	Index    int
	Stamp    string
	Keys     []Key
	Obs      map[Key]Observation
	Warnings []string
}

// Dataset is the merged, ever-growing dataset: a sparse ledger mapping each
// product key to the observations of every file index that reported it.
// Row order is first-seen order, which matches a left-preserving outer join
// across successive snapshots.
type Dataset struct {
	order   []Key
	rows    map[Key]map[int]Observation
	indices []int
}

func New() *Dataset {
	return &Dataset{rows: make(map[Key]map[int]Observation)}
}

func (d *Dataset) Len() int       { return len(d.order) }
func (d *Dataset) Empty() bool    { return len(d.order) == 0 }
func (d *Dataset) Keys() []Key    { return d.order }
func (d *Dataset) Indices() []int { return d.indices }

// Observation returns the triplet recorded for (key, index), if any.
func (d *Dataset) Observation(k Key, index int) (Observation, bool) {
	obs, ok := d.rows[k][index]
	return obs, ok
}

// Append registers an observation for (key, index) without going through a
// snapshot. New keys are appended to the row order; an existing observation
// for the same (key, index) is left untouched. Used when rebuilding the
// dataset from the persisted ledger.
func (d *Dataset) Append(k Key, index int, obs Observation) {
	byIndex, ok := d.rows[k]
	if !ok {
		byIndex = make(map[int]Observation)
		d.rows[k] = byIndex
		d.order = append(d.order, k)
	}
	if _, exists := byIndex[index]; exists {
		return
	}
	byIndex[index] = obs
	d.addIndex(index)
}

// Incorporate merges a snapshot into the dataset: a full outer join on the
// reference key. Keys already present gain the snapshot's columns; new keys
// are appended in file order. Observations of previously ingested indices
// are never modified.
func (d *Dataset) Incorporate(s *Snapshot) {
	for _, k := range s.Keys {
		obs, ok := s.Obs[k]
		if !ok {
			continue
		}
		d.Append(k, s.Index, obs)
	}
}

func (d *Dataset) addIndex(index int) {
	i := sort.SearchInts(d.indices, index)
	if i < len(d.indices) && d.indices[i] == index {
		return
	}
	d.indices = append(d.indices, 0)
	copy(d.indices[i+1:], d.indices[i:])
	d.indices[i] = index
}

// Column describes one output column. Index is zero for reference columns
// and for the bare field column of an empty category sheet.
type Column struct {
	Name  string
	Base  string
	Index int
}

// IsRef reports whether the column carries no file index and therefore gets
// a blank first header row.
func (c Column) IsRef() bool { return c.Index == 0 }

// Table is the wide projection of a dataset: the shape that output sheets
// take, with one suffixed column triplet per file index.
type Table struct {
	Columns []Column
	Rows    [][]Value
}

// Wide projects the sparse ledger into a Table: the three reference columns
// followed by ADD_<i>, On Hand_<i>, Free ROD_<i> for every file index in
// ascending order. Cells with no recorded observation are NoData.
func (d *Dataset) Wide() Table {
	cols := make([]Column, 0, 3+3*len(d.indices))
	for _, name := range RefFields {
		cols = append(cols, Column{Name: name, Base: name})
	}
	for _, idx := range d.indices {
		for _, base := range DataFields {
			cols = append(cols, Column{
				Name:  fmt.Sprintf("%s_%d", base, idx),
				Base:  base,
				Index: idx,
			})
		}
	}

	rows := make([][]Value, 0, len(d.order))
	for _, k := range d.order {
		row := make([]Value, 0, len(cols))
		row = append(row, Str(k.Descr), Str(k.OPC), Str(k.SKU))
		for _, idx := range d.indices {
			obs, ok := d.rows[k][idx]
			if !ok {
				row = append(row, NoData, NoData, NoData)
				continue
			}
			row = append(row, Num(obs.ADD), obs.OnHand, Num(obs.FreeROD))
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

// SelectField projects the table to the reference columns plus every data
// column whose base name equals base, preserving column order.
func (t Table) SelectField(base string) Table {
	var keep []int
	cols := make([]Column, 0, len(t.Columns))
	for i, c := range t.Columns {
		if c.IsRef() || c.Base == base {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	rows := make([][]Value, len(t.Rows))
	for ri, src := range t.Rows {
		row := make([]Value, len(keep))
		for j, ci := range keep {
			row[j] = src[ci]
		}
		rows[ri] = row
	}
	return Table{Columns: cols, Rows: rows}
}

// Cell returns the value of the named column in the given row, NoData when
// the column does not exist.
func (t Table) Cell(row int, name string) Value {
	for i, c := range t.Columns {
		if c.Name == name {
			return t.Rows[row][i]
		}
	}
	return NoData
}
