package profile

import (
	"fmt"
	"strings"

	"github.com/klytics/rosterfmt/internal/roster"
)

const maxSheetName = 31

func validate(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile is missing a 'name' field")
	}
	if len(p.Reports) == 0 {
		return fmt.Errorf("profile %q has no reports defined", p.Name)
	}

	for name, spec := range p.Columns {
		if _, err := spec.Rule(); err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
	}

	ids := make(map[string]bool)
	sheets := make(map[string]bool)
	addSheet := func(name string) error {
		if err := checkSheetName(name); err != nil {
			return err
		}
		key := strings.ToLower(name)
		if sheets[key] {
			return fmt.Errorf("duplicate sheet name %q — each report and view needs its own sheet", name)
		}
		sheets[key] = true
		return nil
	}

	for i := range p.Reports {
		r := &p.Reports[i]
		if r.ID == "" {
			return fmt.Errorf("report %d is missing an 'id' field", i+1)
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate report ID %q — each report must have a unique ID", r.ID)
		}
		ids[r.ID] = true

		if r.Sheet == "" {
			r.Sheet = r.ID
		}
		if err := addSheet(r.Sheet); err != nil {
			return fmt.Errorf("report %q: %w", r.ID, err)
		}
		if r.LabelRow < 0 {
			return fmt.Errorf("report %q: label_row must be zero or more, got %d", r.ID, r.LabelRow)
		}
		if r.FreezeColumn != "" {
			if _, err := roster.ColumnIndex(r.FreezeColumn); err != nil {
				return fmt.Errorf("report %q freeze_column: %w", r.ID, err)
			}
		}
		if _, err := roster.SuppressedIndexes(r.Suppress); err != nil {
			return fmt.Errorf("report %q suppress: %w", r.ID, err)
		}
		if _, err := p.RuleTable(r); err != nil {
			return err
		}
		for _, v := range r.Views {
			if err := addSheet(v.Sheet); err != nil {
				return fmt.Errorf("report %q view: %w", r.ID, err)
			}
			if _, err := v.FilterSet(); err != nil {
				return fmt.Errorf("report %q: %w", r.ID, err)
			}
		}
	}
	return nil
}

func checkSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("sheet name is empty")
	}
	if len([]rune(name)) > maxSheetName {
		return fmt.Errorf("sheet name %q is longer than %d characters", name, maxSheetName)
	}
	if strings.ContainsAny(name, `[]:*?/\`) {
		return fmt.Errorf("sheet name %q contains one of []:*?/\\", name)
	}
	return nil
}
