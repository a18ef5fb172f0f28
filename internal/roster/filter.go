package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownColumn is returned when a filter names a column the sheet lacks.
var ErrUnknownColumn = errors.New("unknown column")

// Op is a predicate kind.
type Op string

const (
	OpEquals    Op = "equals"
	OpNotEquals Op = "not_equals"
	OpPrefix    Op = "prefix"
	OpContains  Op = "contains"
	OpBlank     Op = "blank"
	OpNotBlank  Op = "not_blank"
	OpOneOf     Op = "one_of"
	OpIntLT     Op = "int_lt"
	OpIntLE     Op = "int_le"
	OpIntGT     Op = "int_gt"
	OpIntGE     Op = "int_ge"
	OpIntEQ     Op = "int_eq"
)

// IsInt reports whether op compares integers.
func (op Op) IsInt() bool {
	switch op {
	case OpIntLT, OpIntLE, OpIntGT, OpIntGE, OpIntEQ:
		return true
	}
	return false
}

// Predicate tests one raw cell value.
type Predicate struct {
	Op     Op
	Text   string
	Values []string
	Int    int
}

// NewPredicate builds a predicate, parsing value for integer ops.
func NewPredicate(op Op, value string, values ...string) (Predicate, error) {
	p := Predicate{Op: op, Text: value, Values: values}
	switch op {
	case OpEquals, OpNotEquals, OpPrefix, OpContains, OpBlank, OpNotBlank:
	case OpOneOf:
		if len(values) == 0 && value != "" {
			p.Values = []string{value}
		}
	case OpIntLT, OpIntLE, OpIntGT, OpIntGE, OpIntEQ:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return Predicate{}, fmt.Errorf("%s needs an integer value, got %q", op, value)
		}
		p.Int = n
	default:
		return Predicate{}, fmt.Errorf("unknown filter op %q", op)
	}
	return p, nil
}

// Match evaluates the predicate against v.
func (p Predicate) Match(v any) bool {
	if p.Op.IsInt() {
		if s, ok := v.(string); ok && (s == "" || s == notApplicable) {
			return false
		}
		n, ok := toInt(v)
		if !ok {
			return false
		}
		switch p.Op {
		case OpIntLT:
			return n < p.Int
		case OpIntLE:
			return n <= p.Int
		case OpIntGT:
			return n > p.Int
		case OpIntGE:
			return n >= p.Int
		case OpIntEQ:
			return n == p.Int
		}
		return false
	}

	text := CellText(v)
	switch p.Op {
	case OpEquals:
		return text == p.Text
	case OpNotEquals:
		return text != p.Text
	case OpPrefix:
		return strings.HasPrefix(text, p.Text)
	case OpContains:
		return strings.Contains(text, p.Text)
	case OpBlank:
		return strings.TrimSpace(text) == ""
	case OpNotBlank:
		return strings.TrimSpace(text) != ""
	case OpOneOf:
		for _, want := range p.Values {
			if text == want {
				return true
			}
		}
	}
	return false
}

// FilterRule binds a predicate to a column label.
type FilterRule struct {
	Column string
	Pred   Predicate
}

// FilterSet is a named conjunction of filter rules.
type FilterSet struct {
	Name  string
	Rules []FilterRule
}

// Check verifies that every filtered column exists in index.
func (f FilterSet) Check(index map[string]int) error {
	for _, rule := range f.Rules {
		if _, ok := index[rule.Column]; !ok {
			return fmt.Errorf("filter %q: %w %q", f.Name, ErrUnknownColumn, rule.Column)
		}
	}
	return nil
}

// Include reports whether row passes every rule. It stops at the first
// failing rule. An empty set includes every row.
func (f FilterSet) Include(row []any, index map[string]int) (bool, error) {
	for _, rule := range f.Rules {
		c, ok := index[rule.Column]
		if !ok {
			return false, fmt.Errorf("filter %q: %w %q", f.Name, ErrUnknownColumn, rule.Column)
		}
		var v any = ""
		if c < len(row) && row[c] != nil {
			v = row[c]
		}
		if !rule.Pred.Match(v) {
			return false, nil
		}
	}
	return true, nil
}
