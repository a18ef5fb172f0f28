package inspect

import (
	"path/filepath"
	"testing"

	"github.com/klytics/rosterfmt/internal/formats/xlsx"
	"github.com/klytics/rosterfmt/internal/roster"
)

func TestSummarize(t *testing.T) {
	wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{
		{
			Name:   "Roster",
			Rows:   [][]string{{"Staff Roster"}, {"Name", "DaysRemain"}, {"Alex", "3"}},
			Tables: []xlsx.Table{{Name: "Roster", Range: "A2:B3"}},
			Freeze: "B3",
		},
		{Name: "Empty", Rows: [][]string{{"Name", "DaysRemain"}}},
	}}

	got := Summarize(wb)
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Rows != 3 || got[0].Freeze != "B3" {
		t.Errorf("unexpected summary: %+v", got[0])
	}
	if len(got[0].Tables) != 1 || got[0].Tables[0] != "Roster A2:B3" {
		t.Errorf("unexpected tables: %v", got[0].Tables)
	}
	if len(got[0].Header) != 2 || got[0].Header[0] != "Name" {
		t.Errorf("header should come from the table's first row, got %v", got[0].Header)
	}
	if got[1].Tables != nil || got[1].Header != nil {
		t.Errorf("sheet without a table should have no tables or header: %+v", got[1])
	}
}

func TestSummarizeWrittenWorkbook(t *testing.T) {
	sheet, err := roster.Materialize(roster.NewGrid([][]any{
		{"Name", "DaysRemain"},
		{"Alex", 3.0},
	}), roster.MaterializeOptions{Name: "Roster", LabelRow: 0, FreezeColumn: "B"})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	if err := xlsx.WriteFile([]*roster.Sheet{sheet}, path, xlsx.Props{}); err != nil {
		t.Fatal(err)
	}
	wb, err := xlsx.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got := Summarize(wb)
	if len(got) != 1 || got[0].Freeze != "B2" || len(got[0].Tables) != 1 {
		t.Errorf("unexpected summary: %+v", got)
	}
}
