package roster

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ViewOptions configures a filtered copy of a materialized sheet.
type ViewOptions struct {
	Name     string
	LabelRow int
	Filter   FilterSet
	Rules    RuleTable
}

// CopyView builds a derived sheet from base. The label row becomes row 1,
// followed by every base row below it that passes opts.Filter, in order.
// Rows above the label row are not carried over.
func CopyView(base *Sheet, opts ViewOptions) (*Sheet, error) {
	if opts.LabelRow < 0 || opts.LabelRow >= base.NRows() {
		return nil, fmt.Errorf("view %q: %w (row %d of %d)", opts.Name, ErrNoLabelRow, opts.LabelRow+1, base.NRows())
	}

	labels := base.Values(opts.LabelRow)
	cols, err := ResolveColumns(labels, opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("view %q: %w", opts.Name, err)
	}
	if err := opts.Filter.Check(cols.Index); err != nil {
		return nil, fmt.Errorf("view %q: %w", opts.Name, err)
	}

	view := &Sheet{
		Name:     opts.Name,
		Columns:  make([]ColumnFormat, len(labels)),
		Rows:     [][]Cell{plainCells(labels)},
		Date1904: base.Date1904,
	}
	for c := range labels {
		view.Columns[c] = cols.Rule(c).Format()
	}

	for r := opts.LabelRow + 1; r < base.NRows(); r++ {
		values := base.Values(r)
		ok, err := opts.Filter.Include(values, cols.Index)
		if err != nil {
			return nil, fmt.Errorf("view %q: %w", opts.Name, err)
		}
		if !ok {
			continue
		}
		row := make([]Cell, len(labels))
		for c := range labels {
			var v any = ""
			if c < len(values) && values[c] != nil {
				v = values[c]
			}
			row[c] = cols.Rule(c).Apply(v, base.Date1904)
		}
		view.Rows = append(view.Rows, row)
	}

	emitted := len(view.Rows) - 1
	if emitted > 0 && len(labels) > 0 {
		view.Table = &Region{FirstRow: 1, FirstCol: 1, LastRow: len(view.Rows), LastCol: len(labels)}
		view.Freeze = "B2"
	}
	log.Debug().Str("view", opts.Name).Str("filter", opts.Filter.Name).Int("rows", emitted).Msg("copied view")

	return view, nil
}
