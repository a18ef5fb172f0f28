// Package roster turns raw staffing-roster grids into styled output sheets.
//
// A roster source is a row-major grid with a label (header) row somewhere near
// the top. Column rules keyed by label decide widths, number formats,
// alignment and value conversions; filter sets keyed by label select the rows
// that make up derived views.
package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Grid is a read-only, zero-based, row-major table of source values.
// Cells hold string, float64, int, bool or time.Time. Blank cells are "".
type Grid struct {
	Rows [][]any
	// Date1904 reports whether date serials use the 1904 date system.
	Date1904 bool
}

// NewGrid wraps rows in a Grid using the 1900 date system.
func NewGrid(rows [][]any) *Grid {
	return &Grid{Rows: rows}
}

// NRows returns the number of rows.
func (g *Grid) NRows() int {
	return len(g.Rows)
}

// NCols returns the width of the widest row.
func (g *Grid) NCols() int {
	n := 0
	for _, row := range g.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Cell returns the value at (r, c), or "" outside the populated area.
func (g *Grid) Cell(r, c int) any {
	if r < 0 || r >= len(g.Rows) || c < 0 || c >= len(g.Rows[r]) {
		return ""
	}
	if g.Rows[r][c] == nil {
		return ""
	}
	return g.Rows[r][c]
}

// Row returns row r padded to NCols.
func (g *Grid) Row(r int) []any {
	n := g.NCols()
	row := make([]any, n)
	for c := 0; c < n; c++ {
		row[c] = g.Cell(r, c)
	}
	return row
}

// CellText renders a cell value the way a spreadsheet shows it by default.
// Whole floats print without a fraction so labels like 2025 stay "2025".
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}

// ColumnIndex converts a column letter such as "Z" or "aa" to a zero-based index.
func ColumnIndex(letters string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letters))
	if err != nil {
		return 0, fmt.Errorf("invalid column letter %q: %w", letters, err)
	}
	return n - 1, nil
}

// ColumnLetter converts a zero-based column index to its letter name.
func ColumnLetter(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return ""
	}
	return name
}

// Region is a rectangular, one-based, inclusive cell range.
type Region struct {
	FirstRow, FirstCol int
	LastRow, LastCol   int
}

// Ref returns the A1-style reference, e.g. "A6:F42".
func (r Region) Ref() string {
	from, _ := excelize.CoordinatesToCellName(r.FirstCol, r.FirstRow)
	to, _ := excelize.CoordinatesToCellName(r.LastCol, r.LastRow)
	return from + ":" + to
}

// Rows returns the number of rows covered, header included.
func (r Region) Rows() int {
	return r.LastRow - r.FirstRow + 1
}
