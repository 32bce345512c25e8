// Package ingest reads one inventory snapshot file into a normalized,
// index-tagged dataset.Snapshot.
package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"skusheet/internal/dataset"
	"skusheet/internal/normalize"
)

// StampLayout is the display format of a file's timestamp.
const StampLayout = "02/01/2006"

// MissingHeaderError reports that the three reference headers were not all
// found in either of the first two rows of the file.
type MissingHeaderError struct {
	Path string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("reference headers %v not found in %s (checked first and second rows)",
		dataset.RefFields, e.Path)
}

// ReadSnapshot ingests one file under the given file index. The header row
// is sought in the first row, then the second. Reference and data columns
// are located by exact name; any other columns are ignored. Data values are
// normalized per their column's rule and the file's timestamp is derived
// from its modification time.
//
// Duplicate reference keys keep their first occurrence; duplicates and
// normalization fallbacks are reported in the snapshot's warning list.
func ReadSnapshot(path string, index int) (*dataset.Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheets[0], path, err)
	}

	headerRow, cols := findHeader(rows)
	if headerRow < 0 {
		return nil, &MissingHeaderError{Path: path}
	}
	var missing []string
	for _, name := range dataset.DataFields {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("data columns %v not found in %s", missing, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	snap := &dataset.Snapshot{
		Index: index,
		Stamp: info.ModTime().Format(StampLayout),
		Obs:   make(map[dataset.Key]dataset.Observation),
	}

	var fallbacks int
	for _, row := range rows[headerRow+1:] {
		key := dataset.Key{
			Descr: cell(row, cols["Descr"]),
			OPC:   cell(row, cols["OPC"]),
			SKU:   cell(row, cols["SKU"]),
		}
		rawAdd := cell(row, cols["ADD"])
		rawOnHand := cell(row, cols["On Hand"])
		rawFreeROD := cell(row, cols["Free ROD"])
		if key == (dataset.Key{}) && rawAdd == "" && rawOnHand == "" && rawFreeROD == "" {
			continue
		}
		if _, dup := snap.Obs[key]; dup {
			snap.Warnings = append(snap.Warnings,
				fmt.Sprintf("duplicate key %q/%q/%q: keeping first occurrence", key.Descr, key.OPC, key.SKU))
			continue
		}

		add, fell := normalize.Add(rawAdd)
		if fell {
			fallbacks++
		}
		freeROD, fell := normalize.FreeROD(rawFreeROD)
		if fell {
			fallbacks++
		}
		snap.Keys = append(snap.Keys, key)
		snap.Obs[key] = dataset.Observation{
			ADD:     add,
			OnHand:  normalize.OnHand(rawOnHand),
			FreeROD: freeROD,
		}
	}
	if fallbacks > 0 {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("%d value(s) failed numeric parsing and fell back to 0", fallbacks))
	}
	return snap, nil
}

// findHeader locates the header among the first two rows: the first row
// containing all three reference headers wins. Returns -1 when neither
// qualifies.
func findHeader(rows [][]string) (int, map[string]int) {
	for r := 0; r < 2 && r < len(rows); r++ {
		cols := make(map[string]int)
		for i, name := range rows[r] {
			name = strings.TrimSpace(name)
			if _, seen := cols[name]; !seen {
				cols[name] = i
			}
		}
		ok := true
		for _, ref := range dataset.RefFields {
			if _, found := cols[ref]; !found {
				ok = false
				break
			}
		}
		if ok {
			return r, cols
		}
	}
	return -1, nil
}

// cell fetches a column from a row, tolerating the short rows excelize
// returns when trailing cells are empty.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
