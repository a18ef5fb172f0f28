// Package xlsx writes styled roster workbooks and reads them back for
// inspection.
package xlsx

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Table is a declared table region on a sheet.
type Table struct {
	Name  string `json:"name"`
	Range string `json:"range"`
	Style string `json:"style,omitempty"`
}

// Sheet represents a single worksheet's data and layout.
type Sheet struct {
	Name   string     `json:"name"`
	Rows   [][]string `json:"rows"`
	Tables []Table    `json:"tables,omitempty"`
	Freeze string     `json:"freeze,omitempty"`
}

// Workbook represents a parsed Excel file with all its sheets.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// ReadBytes reads an .xlsx file from a byte slice and returns its structured data.
func ReadBytes(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}

		sheet := Sheet{
			Name: name,
			Rows: rows,
		}

		tables, err := f.GetTables(name)
		if err != nil {
			return nil, fmt.Errorf("could not read tables of sheet %q: %w", name, err)
		}
		for _, t := range tables {
			sheet.Tables = append(sheet.Tables, Table{Name: t.Name, Range: t.Range, Style: t.StyleName})
		}

		panes, err := f.GetPanes(name)
		if err != nil {
			return nil, fmt.Errorf("could not read panes of sheet %q: %w", name, err)
		}
		if panes.Freeze {
			sheet.Freeze = panes.TopLeftCell
		}

		wb.Sheets = append(wb.Sheets, sheet)
	}

	return wb, nil
}

// GetSheet returns a specific sheet by name. Returns an error if the sheet is not found.
func (wb *Workbook) GetSheet(name string) (*Sheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}

	available := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		available[i] = s.Name
	}
	return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, available)
}

// RowCount returns the total number of non-empty rows.
func (s *Sheet) RowCount() int {
	count := 0
	for _, row := range s.Rows {
		for _, cell := range row {
			if cell != "" {
				count++
				break
			}
		}
	}
	return count
}
