// Package report renders tables into the destination workbook with the
// two-row layered header: each data column carries its file's timestamp
// above the bare field name.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"skusheet/internal/dataset"
)

// Sheet pairs an output sheet name with the table it renders.
type Sheet struct {
	Name  string
	Table dataset.Table
}

// WriteError wraps any failure while emitting the destination workbook.
// It is the engine's only fatal error class.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write output %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Write emits all sheets to one workbook at path. Header row 1 holds the
// timestamp registered for each data column's file index (blank for
// reference columns and unknown indices); header row 2 holds the bare
// field name. Data rows follow unchanged, missing cells as blanks.
func Write(path string, sheets []Sheet, stamps dataset.Stamps) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return &WriteError{Path: path, Err: fmt.Errorf("create sheet %s: %w", sheet.Name, err)}
		}
		if err := writeSheet(f, sheet, stamps); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	// Drop excelize's implicit first sheet unless one of ours claimed the name.
	claimed := false
	for _, sheet := range sheets {
		if sheet.Name == "Sheet1" {
			claimed = true
			break
		}
	}
	if len(sheets) > 0 && !claimed {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return &WriteError{Path: path, Err: fmt.Errorf("drop default sheet: %w", err)}
		}
	}
	if len(sheets) > 0 {
		idx, err := f.GetSheetIndex(sheets[0].Name)
		if err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, stamps dataset.Stamps) error {
	header1 := make([]any, len(sheet.Table.Columns))
	header2 := make([]any, len(sheet.Table.Columns))
	for i, c := range sheet.Table.Columns {
		if c.IsRef() {
			header1[i] = ""
			header2[i] = c.Name
			continue
		}
		header1[i] = stamps[c.Index]
		header2[i] = c.Base
	}
	if err := setRow(f, sheet.Name, 1, header1); err != nil {
		return err
	}
	if err := setRow(f, sheet.Name, 2, header2); err != nil {
		return err
	}

	for ri, row := range sheet.Table.Rows {
		cells := make([]any, len(row))
		for ci, v := range row {
			switch v.Kind {
			case dataset.Number:
				cells[ci] = v.Num
			case dataset.Text:
				cells[ci] = v.Text
			default:
				cells[ci] = nil
			}
		}
		if err := setRow(f, sheet.Name, ri+3, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	if len(cells) == 0 {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}
