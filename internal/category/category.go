// Package category partitions merged rows into named categories by
// pattern-matching the product description field.
package category

import (
	"strings"

	"skusheet/internal/dataset"
)

// Rule is one category: rows whose Descr contains any of the Match
// substrings (case-sensitive) belong to it. Sheets maps each data field to
// the output sheet carrying that category's slice of the field.
type Rule struct {
	Name   string            `yaml:"name"`
	Match  []string          `yaml:"match"`
	Sheets map[string]string `yaml:"sheets"`
}

// Matches reports whether a description belongs to the category.
func (r Rule) Matches(descr string) bool {
	for _, m := range r.Match {
		if m != "" && strings.Contains(descr, m) {
			return true
		}
	}
	return false
}

// Filter returns the subset of the table's rows matching the rule,
// preserving column shape. An unmatched category yields an empty table with
// the same columns.
func Filter(t dataset.Table, r Rule) dataset.Table {
	descrCol := -1
	for i, c := range t.Columns {
		if c.Name == "Descr" {
			descrCol = i
			break
		}
	}
	out := dataset.Table{Columns: t.Columns, Rows: [][]dataset.Value{}}
	if descrCol < 0 {
		return out
	}
	for _, row := range t.Rows {
		if r.Matches(row[descrCol].Text) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Extract classifies, then projects to the reference columns plus every
// data column of one field type across all file indices.
func Extract(t dataset.Table, r Rule, field string) dataset.Table {
	return Filter(t, r).SelectField(field)
}
