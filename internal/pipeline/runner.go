// Package pipeline runs a report profile end to end: pull each report's grid
// from a source, materialize its sheets and write one workbook.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/klytics/rosterfmt/internal/formats/xlsx"
	"github.com/klytics/rosterfmt/internal/profile"
	"github.com/klytics/rosterfmt/internal/roster"
)

// Runner builds the sheets of a profile from a source.
type Runner struct {
	Profile *profile.Profile
	Source  Source
	// Only restricts the run to these report IDs. Empty means every report.
	Only []string
}

// SheetResult summarizes one written sheet.
type SheetResult struct {
	Name     string `json:"name"`
	Report   string `json:"report"`
	View     bool   `json:"view"`
	DataRows int    `json:"dataRows"`
	Table    string `json:"table,omitempty"`
}

// Result describes a completed run.
type Result struct {
	RunID    string        `json:"runId"`
	Output   string        `json:"output"`
	Sheets   []SheetResult `json:"sheets"`
	Duration time.Duration `json:"duration"`
}

// Build materializes, report by report in profile order, the base sheet
// followed by each of its views.
func (r *Runner) Build(ctx context.Context) ([]*roster.Sheet, []SheetResult, error) {
	reports, err := r.reports()
	if err != nil {
		return nil, nil, err
	}

	var sheets []*roster.Sheet
	var results []SheetResult
	for _, report := range reports {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		grid, err := r.Source.Grid(ctx, report)
		if err != nil {
			return nil, nil, err
		}

		rules, err := r.Profile.RuleTable(report)
		if err != nil {
			return nil, nil, err
		}

		base, err := roster.Materialize(grid, roster.MaterializeOptions{
			Name:         report.Sheet,
			LabelRow:     report.LabelRow,
			Rules:        rules,
			Suppress:     report.Suppress,
			FreezeColumn: report.FreezeColumn,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("report %q: %w", report.ID, err)
		}
		sheets = append(sheets, base)
		results = append(results, sheetResult(report.ID, base, false))

		for _, v := range report.Views {
			filter, err := v.FilterSet()
			if err != nil {
				return nil, nil, err
			}
			view, err := roster.CopyView(base, roster.ViewOptions{
				Name:     v.Sheet,
				LabelRow: report.LabelRow,
				Filter:   filter,
				Rules:    rules,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("report %q view %q: %w", report.ID, v.Sheet, err)
			}
			sheets = append(sheets, view)
			results = append(results, sheetResult(report.ID, view, true))
		}
	}
	return sheets, results, nil
}

// Run builds every sheet and then writes the workbook to out. A failure
// anywhere leaves out untouched.
func (r *Runner) Run(ctx context.Context, out string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	sheets, results, err := r.Build(ctx)
	if err != nil {
		return nil, err
	}

	if err := xlsx.WriteFile(sheets, out, xlsx.Props{Title: r.Profile.Name, ID: runID}); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    runID,
		Output:   out,
		Sheets:   results,
		Duration: time.Since(start),
	}
	log.Info().Str("run", runID).Str("output", out).Int("sheets", len(results)).Dur("took", res.Duration).Msg("run complete")
	return res, nil
}

func (r *Runner) reports() ([]*profile.Report, error) {
	if len(r.Only) == 0 {
		reports := make([]*profile.Report, len(r.Profile.Reports))
		for i := range r.Profile.Reports {
			reports[i] = &r.Profile.Reports[i]
		}
		return reports, nil
	}

	want := make(map[string]bool, len(r.Only))
	for _, id := range r.Only {
		if _, err := r.Profile.Report(id); err != nil {
			return nil, err
		}
		want[id] = true
	}
	var reports []*profile.Report
	for i := range r.Profile.Reports {
		if want[r.Profile.Reports[i].ID] {
			reports = append(reports, &r.Profile.Reports[i])
		}
	}
	return reports, nil
}

func sheetResult(report string, s *roster.Sheet, view bool) SheetResult {
	res := SheetResult{Name: s.Name, Report: report, View: view, DataRows: s.DataRows()}
	if s.Table != nil {
		res.Table = s.Table.Ref()
	}
	return res
}
