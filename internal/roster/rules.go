package roster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateHeader is returned when two columns share a non-empty label.
var ErrDuplicateHeader = errors.New("duplicate column header")

// Align is a horizontal cell alignment.
type Align string

const (
	AlignDefault Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
)

// ParseAlign validates an alignment name.
func ParseAlign(name string) (Align, error) {
	switch a := Align(strings.ToLower(strings.TrimSpace(name))); a {
	case AlignDefault, AlignLeft, AlignCenter, AlignRight:
		return a, nil
	}
	return AlignDefault, fmt.Errorf("unknown alignment %q — use left, center or right", name)
}

// ColumnRule is the formatting and conversion bundle for one column.
// The zero value means auto-size, no number format, no conversion.
type ColumnRule struct {
	Width        float64
	NumberFormat string
	Align        Align
	Convert      Conversion
}

// IsZero reports whether the rule has no attributes.
func (r ColumnRule) IsZero() bool {
	return r == ColumnRule{}
}

// Apply runs the conversion, then attaches number format and alignment.
func (r ColumnRule) Apply(v any, date1904 bool) Cell {
	cell := Cell{Value: v}
	if r.Convert != ConvertNone {
		cell.Value = r.Convert.Apply(v, date1904)
	}
	if r.NumberFormat != "" {
		cell.NumberFormat = r.NumberFormat
	}
	if r.Align != AlignDefault {
		cell.Align = r.Align
	}
	return cell
}

// Format returns the column-level setting implied by the rule.
func (r ColumnRule) Format() ColumnFormat {
	if r.Width > 0 {
		return ColumnFormat{Width: r.Width}
	}
	return ColumnFormat{AutoSize: true}
}

// RuleTable maps a column label to its rule.
type RuleTable map[string]ColumnRule

// Columns is a rule table resolved against one label row.
type Columns struct {
	// Rules is indexed by column position.
	Rules []ColumnRule
	// Index maps a label to its zero-based column.
	Index map[string]int
}

// ResolveColumns looks up every label in table. Unknown labels get the zero
// rule. Blank labels are not indexed; any other repeated label is an error.
func ResolveColumns(labels []any, table RuleTable) (*Columns, error) {
	cols := &Columns{
		Rules: make([]ColumnRule, len(labels)),
		Index: make(map[string]int, len(labels)),
	}
	for c, label := range labels {
		name := CellText(label)
		cols.Rules[c] = table[name]
		if name == "" {
			continue
		}
		if prev, ok := cols.Index[name]; ok {
			return nil, fmt.Errorf("%w %q in columns %s and %s",
				ErrDuplicateHeader, name, ColumnLetter(prev), ColumnLetter(c))
		}
		cols.Index[name] = c
	}
	return cols, nil
}

// Rule returns the rule for column c, or the zero rule past the label row.
func (c *Columns) Rule(col int) ColumnRule {
	if col < 0 || col >= len(c.Rules) {
		return ColumnRule{}
	}
	return c.Rules[col]
}
