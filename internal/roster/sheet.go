package roster

// Cell is one output cell: a value plus display attributes.
type Cell struct {
	Value        any
	NumberFormat string
	Align        Align
}

// ColumnFormat is the width setting of one output column.
type ColumnFormat struct {
	Width    float64
	AutoSize bool
}

// Sheet is a fully materialized output worksheet.
type Sheet struct {
	Name    string
	Rows    [][]Cell
	Columns []ColumnFormat
	// Table is the declared table region, nil when the sheet has no data rows.
	Table *Region
	// Freeze is the top-left unfrozen cell, e.g. "B7". Empty means no panes.
	Freeze   string
	Date1904 bool
}

// NRows returns the number of written rows.
func (s *Sheet) NRows() int {
	return len(s.Rows)
}

// NCols returns the number of output columns.
func (s *Sheet) NCols() int {
	n := len(s.Columns)
	for _, row := range s.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Values returns the raw values of row r.
func (s *Sheet) Values(r int) []any {
	if r < 0 || r >= len(s.Rows) {
		return nil
	}
	out := make([]any, len(s.Rows[r]))
	for c, cell := range s.Rows[r] {
		out[c] = cell.Value
	}
	return out
}

// DataRows returns the number of rows inside the table below its header.
func (s *Sheet) DataRows() int {
	if s.Table == nil {
		return 0
	}
	return s.Table.Rows() - 1
}

func plainCells(values []any) []Cell {
	cells := make([]Cell, len(values))
	for c, v := range values {
		if v == nil {
			v = ""
		}
		cells[c] = Cell{Value: v}
	}
	return cells
}
