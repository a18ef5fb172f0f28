package roster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// ErrNoLabelRow is returned when the configured label row is past the data.
var ErrNoLabelRow = errors.New("label row not present in source")

// DefaultFreezeColumn keeps the first column visible while scrolling.
const DefaultFreezeColumn = "B"

// MaterializeOptions configures a full copy of a source grid.
type MaterializeOptions struct {
	Name     string
	LabelRow int
	Rules    RuleTable
	// Suppress lists source column letters to drop from the output.
	Suppress []string
	// FreezeColumn is the first scrolling column; DefaultFreezeColumn when empty.
	FreezeColumn string
}

// Materialize copies every row of src into a new sheet. Rows below the label
// row get their column's fixups; rows above it and the label row itself are
// copied verbatim. Suppressed columns are dropped and later columns shift left.
func Materialize(src *Grid, opts MaterializeOptions) (*Sheet, error) {
	if opts.LabelRow < 0 || opts.LabelRow >= src.NRows() {
		return nil, fmt.Errorf("sheet %q: %w (row %d of %d)", opts.Name, ErrNoLabelRow, opts.LabelRow+1, src.NRows())
	}

	suppressed, err := suppressedColumns(opts.Suppress)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", opts.Name, err)
	}

	ncols := src.NCols()
	keep := make([]int, 0, ncols)
	for c := 0; c < ncols; c++ {
		if !suppressed[c] {
			keep = append(keep, c)
		}
	}
	if outside := outOfRange(suppressed, ncols); len(outside) > 0 {
		log.Warn().Str("sheet", opts.Name).Strs("columns", outside).Int("width", ncols).Msg("suppressed columns are past the source width")
	}

	// suppressed columns never reach the output, so only retained labels are resolved
	labels := make([]any, len(keep))
	for out, c := range keep {
		labels[out] = src.Cell(opts.LabelRow, c)
	}
	log.Debug().Str("sheet", opts.Name).Int("label_row", opts.LabelRow).Int("columns", len(labels)).Msg("resolving column rules")

	cols, err := ResolveColumns(labels, opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", opts.Name, err)
	}

	sheet := &Sheet{
		Name:     opts.Name,
		Columns:  make([]ColumnFormat, len(keep)),
		Rows:     make([][]Cell, src.NRows()),
		Date1904: src.Date1904,
	}
	for out := range keep {
		sheet.Columns[out] = cols.Rule(out).Format()
	}

	for r := 0; r < src.NRows(); r++ {
		row := make([]Cell, len(keep))
		for out, c := range keep {
			v := src.Cell(r, c)
			if r > opts.LabelRow {
				row[out] = cols.Rule(out).Apply(v, src.Date1904)
			} else {
				row[out] = Cell{Value: v}
			}
		}
		sheet.Rows[r] = row
	}

	if src.NRows() > opts.LabelRow+1 && len(keep) > 0 {
		sheet.Table = &Region{
			FirstRow: opts.LabelRow + 1,
			FirstCol: 1,
			LastRow:  src.NRows(),
			LastCol:  len(keep),
		}
		freezeCol := opts.FreezeColumn
		if freezeCol == "" {
			freezeCol = DefaultFreezeColumn
		}
		sheet.Freeze = fmt.Sprintf("%s%d", freezeCol, opts.LabelRow+2)
		log.Debug().Str("sheet", opts.Name).Str("table", sheet.Table.Ref()).Str("freeze", sheet.Freeze).Msg("declared table")
	}

	return sheet, nil
}

func suppressedColumns(letters []string) (map[int]bool, error) {
	set := make(map[int]bool, len(letters))
	for _, l := range letters {
		c, err := ColumnIndex(l)
		if err != nil {
			return nil, err
		}
		set[c] = true
	}
	return set, nil
}

func outOfRange(suppressed map[int]bool, ncols int) []string {
	var out []string
	for c := range suppressed {
		if c >= ncols {
			out = append(out, ColumnLetter(c))
		}
	}
	sort.Strings(out)
	return out
}

// SuppressedIndexes returns the sorted zero-based indexes of letters.
func SuppressedIndexes(letters []string) ([]int, error) {
	set, err := suppressedColumns(letters)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Ints(out)
	return out, nil
}
