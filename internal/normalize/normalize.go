// Package normalize implements the column-specific rules that turn raw
// spreadsheet cells into canonical values.
//
// Each function is total: every input produces a value. Inputs that only
// resolve through a rule's fallback are flagged so callers can log or count
// them instead of silently accepting zeroed data.
package normalize

import (
	"strconv"
	"strings"

	"skusheet/internal/dataset"
)

// clean strips thousands separators and surrounding whitespace.
func clean(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Add normalizes an ADD cell. Empty and explicit-zero cells become the
// 0.0001 sentinel (zero is a disallowed real value for this field, so the
// sentinel keeps "explicitly zero" distinct from "absent"). All-digit input
// is read as a number with a 4-digit fractional part: "123456" → 123.4560,
// "7" → 0.0007. Anything else parses as a plain float; fellBack reports
// that parsing failed and the 0.0 fallback was substituted.
func Add(raw string) (v float64, fellBack bool) {
	s := clean(raw)
	switch s {
	case "", "0", "0.0":
		return 0.0001, false
	}
	if isDigits(s) {
		if len(s) > 4 {
			s = s[:len(s)-4] + "." + s[len(s)-4:]
		} else {
			s = "0." + strings.Repeat("0", 4-len(s)) + s
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, true
		}
		return f, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true
	}
	return f, false
}

// FreeROD normalizes a Free ROD cell: empty and explicit-zero cells become
// 0.0, everything else parses as a float. fellBack reports a parse failure
// resolved to the 0.0 fallback.
func FreeROD(raw string) (v float64, fellBack bool) {
	s := clean(raw)
	switch s {
	case "", "0", "0.0":
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true
	}
	return f, false
}

// OnHand normalizes an On Hand cell. All-digit input (after separator
// stripping) becomes a number; anything else passes through unchanged,
// because the column legitimately mixes counts with non-numeric markers.
func OnHand(raw string) dataset.Value {
	s := clean(raw)
	if isDigits(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return dataset.Num(f)
		}
	}
	return dataset.Str(raw)
}
