package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSheet(t *testing.T) *Sheet {
	t.Helper()
	sheet, err := Materialize(rosterGrid(), MaterializeOptions{Name: "Roster", LabelRow: testLabelRow, Rules: testRules})
	require.NoError(t, err)
	return sheet
}

func TestCopyViewOverstayed(t *testing.T) {
	base := baseSheet(t)
	lt, err := NewPredicate(OpIntLT, "0")
	require.NoError(t, err)

	view, err := CopyView(base, ViewOptions{
		Name:     "Overstayed",
		LabelRow: testLabelRow,
		Rules:    testRules,
		Filter:   FilterSet{Name: "overstayed", Rules: []FilterRule{{Column: "DaysRemain", Pred: lt}}},
	})
	require.NoError(t, err)

	require.Equal(t, 2, view.NRows())
	assert.Equal(t, []any{"Name", "GAP(s)", "Assigned", "DaysRemain", "Email"}, view.Values(0))
	assert.Equal(t, "Casey", view.Rows[1][0].Value)
	assert.Equal(t, Cell{Value: -1, NumberFormat: "##0", Align: AlignRight}, view.Rows[1][3])

	require.NotNil(t, view.Table)
	assert.Equal(t, "A1:E2", view.Table.Ref())
	assert.Equal(t, "B2", view.Freeze)
	assert.Equal(t, base.Columns, view.Columns)
}

func TestCopyViewPrefixKeepsOrder(t *testing.T) {
	g := NewGrid([][]any{
		{"Name", "GAP(s)"},
		{"Avery", "MC/Logistics"},
		{"Blake", "CC/Ops"},
		{"Casey", "MC/Supply"},
	})
	base, err := Materialize(g, MaterializeOptions{Name: "Roster", LabelRow: 0, Rules: testRules})
	require.NoError(t, err)

	prefix, err := NewPredicate(OpPrefix, "MC/")
	require.NoError(t, err)
	view, err := CopyView(base, ViewOptions{
		Name:   "MC",
		Rules:  testRules,
		Filter: FilterSet{Name: "mc", Rules: []FilterRule{{Column: "GAP(s)", Pred: prefix}}},
	})
	require.NoError(t, err)

	require.Equal(t, 3, view.NRows())
	assert.Equal(t, "MC/Logistics", view.Rows[1][1].Value)
	assert.Equal(t, "MC/Supply", view.Rows[2][1].Value)
	assert.Equal(t, "A1:B3", view.Table.Ref())
}

func TestCopyViewEmptyFilterCopiesAllDataRows(t *testing.T) {
	base := baseSheet(t)
	view, err := CopyView(base, ViewOptions{Name: "All", LabelRow: testLabelRow, Rules: testRules})
	require.NoError(t, err)

	assert.Equal(t, 5, view.NRows())
	assert.Equal(t, 4, view.DataRows())
	// conversions are idempotent on an already materialized base
	assert.Equal(t, base.Rows[6][3], view.Rows[1][3])
	assert.Equal(t, base.Rows[6][2], view.Rows[1][2])
}

func TestCopyViewNoMatchesHasNoTable(t *testing.T) {
	base := baseSheet(t)
	none, err := NewPredicate(OpEquals, "nobody")
	require.NoError(t, err)

	view, err := CopyView(base, ViewOptions{
		Name:     "Nobody",
		LabelRow: testLabelRow,
		Filter:   FilterSet{Name: "nobody", Rules: []FilterRule{{Column: "Name", Pred: none}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, view.NRows())
	assert.Nil(t, view.Table)
	assert.Empty(t, view.Freeze)
}

func TestCopyViewUnknownColumnIsFatal(t *testing.T) {
	base := baseSheet(t)
	p, err := NewPredicate(OpNotBlank, "")
	require.NoError(t, err)

	_, err = CopyView(base, ViewOptions{
		Name:     "Broken",
		LabelRow: testLabelRow,
		Filter:   FilterSet{Name: "broken", Rules: []FilterRule{{Column: "Lodging Tonight", Pred: p}}},
	})
	require.ErrorIs(t, err, ErrUnknownColumn)
	assert.Contains(t, err.Error(), "Lodging Tonight")
}

func TestViewsAreIndependent(t *testing.T) {
	base := baseSheet(t)
	before := base.Values(6)

	mc, err := NewPredicate(OpPrefix, "MC/")
	require.NoError(t, err)
	_, err = CopyView(base, ViewOptions{Name: "MC", LabelRow: testLabelRow, Rules: testRules,
		Filter: FilterSet{Rules: []FilterRule{{Column: "GAP(s)", Pred: mc}}}})
	require.NoError(t, err)

	all, err := CopyView(base, ViewOptions{Name: "All", LabelRow: testLabelRow, Rules: testRules})
	require.NoError(t, err)

	assert.Equal(t, before, base.Values(6))
	assert.Equal(t, 4, all.DataRows())
}
