// Package profile loads report profiles: which roster reports to read, where
// their label rows are, how their columns are formatted and which filtered
// views to derive from them.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klytics/rosterfmt/internal/roster"
)

//go:embed default.yaml
var defaultProfile []byte

// ErrUnknownReport is returned when a report ID is not in the profile.
var ErrUnknownReport = errors.New("unknown report")

// ErrNoMatchingReport is returned when no report claims a source file.
var ErrNoMatchingReport = errors.New("no matching report")

// Profile is a complete set of report definitions for one output workbook.
type Profile struct {
	Name    string                `yaml:"name" json:"name"`
	Output  string                `yaml:"output,omitempty" json:"output,omitempty"`
	Columns map[string]ColumnSpec `yaml:"columns,omitempty" json:"columns,omitempty"`
	Reports []Report              `yaml:"reports" json:"reports"`
}

// ColumnSpec is the on-disk form of a roster.ColumnRule.
type ColumnSpec struct {
	Width        float64 `yaml:"width,omitempty" json:"width,omitempty"`
	NumberFormat string  `yaml:"number_format,omitempty" json:"numberFormat,omitempty"`
	Align        string  `yaml:"align,omitempty" json:"align,omitempty"`
	Convert      string  `yaml:"convert,omitempty" json:"convert,omitempty"`
}

// Report describes one source report and the sheets built from it.
type Report struct {
	ID           string                `yaml:"id" json:"id"`
	Sheet        string                `yaml:"sheet" json:"sheet"`
	LabelRow     int                   `yaml:"label_row" json:"labelRow"`
	FilePattern  string                `yaml:"file_pattern,omitempty" json:"filePattern,omitempty"`
	Mail         MailSpec              `yaml:"mail,omitempty" json:"mail,omitempty"`
	FreezeColumn string                `yaml:"freeze_column,omitempty" json:"freezeColumn,omitempty"`
	Suppress     []string              `yaml:"suppress,omitempty" json:"suppress,omitempty"`
	Columns      map[string]ColumnSpec `yaml:"columns,omitempty" json:"columns,omitempty"`
	Views        []View                `yaml:"views,omitempty" json:"views,omitempty"`
}

// MailSpec selects the message carrying a report.
type MailSpec struct {
	Subject string `yaml:"subject,omitempty" json:"subject,omitempty"`
	From    string `yaml:"from,omitempty" json:"from,omitempty"`
}

// View is a filtered copy of a report's base sheet.
type View struct {
	Sheet   string       `yaml:"sheet" json:"sheet"`
	Filters []FilterSpec `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// FilterSpec is the on-disk form of a roster.FilterRule.
type FilterSpec struct {
	Column string   `yaml:"column" json:"column"`
	Op     string   `yaml:"op" json:"op"`
	Value  string   `yaml:"value,omitempty" json:"value,omitempty"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// Default returns the built-in staff roster profile.
func Default() *Profile {
	p, err := Parse(defaultProfile)
	if err != nil {
		panic(fmt.Sprintf("built-in profile is invalid: %v", err))
	}
	return p
}

// DefaultYAML returns the built-in profile source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultProfile))
	copy(out, defaultProfile)
	return out
}

// Load reads and parses a profile YAML file. An empty path means Default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("profile file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read profile file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates a profile from YAML bytes.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid profile YAML: %w", err)
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Report returns the report with the given id.
func (p *Profile) Report(id string) (*Report, error) {
	ids := make([]string, len(p.Reports))
	for i := range p.Reports {
		if p.Reports[i].ID == id {
			return &p.Reports[i], nil
		}
		ids[i] = p.Reports[i].ID
	}
	return nil, fmt.Errorf("%w %q — available reports: %v", ErrUnknownReport, id, ids)
}

// MatchFile returns the report whose file pattern matches the base name of
// path. A profile with a single report matches any .xls file.
func (p *Profile) MatchFile(path string) (*Report, bool) {
	base := filepath.Base(path)
	for i := range p.Reports {
		pattern := p.Reports[i].FilePattern
		if pattern == "" {
			continue
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return &p.Reports[i], true
		}
	}
	if len(p.Reports) == 1 && strings.EqualFold(filepath.Ext(base), ".xls") {
		return &p.Reports[0], true
	}
	return nil, false
}

// SheetNames lists every output sheet in workbook order.
func (p *Profile) SheetNames() []string {
	var names []string
	for _, r := range p.Reports {
		names = append(names, r.Sheet)
		for _, v := range r.Views {
			names = append(names, v.Sheet)
		}
	}
	return names
}

// RuleTable builds the column rules for r: shared columns overlaid by the
// report's own columns.
func (p *Profile) RuleTable(r *Report) (roster.RuleTable, error) {
	table := make(roster.RuleTable, len(p.Columns)+len(r.Columns))
	for name, spec := range p.Columns {
		rule, err := spec.Rule()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		table[name] = rule
	}
	for name, spec := range r.Columns {
		rule, err := spec.Rule()
		if err != nil {
			return nil, fmt.Errorf("report %q column %q: %w", r.ID, name, err)
		}
		table[name] = rule
	}
	return table, nil
}

// Rule converts the on-disk column settings to a roster.ColumnRule.
func (s ColumnSpec) Rule() (roster.ColumnRule, error) {
	conv, err := roster.ParseConversion(s.Convert)
	if err != nil {
		return roster.ColumnRule{}, err
	}
	align, err := roster.ParseAlign(s.Align)
	if err != nil {
		return roster.ColumnRule{}, err
	}
	if s.Width < 0 {
		return roster.ColumnRule{}, fmt.Errorf("width must not be negative, got %v", s.Width)
	}
	return roster.ColumnRule{
		Width:        s.Width,
		NumberFormat: s.NumberFormat,
		Align:        align,
		Convert:      conv,
	}, nil
}

// FilterSet compiles the view's filters.
func (v View) FilterSet() (roster.FilterSet, error) {
	set := roster.FilterSet{Name: v.Sheet}
	for i, f := range v.Filters {
		if f.Column == "" {
			return roster.FilterSet{}, fmt.Errorf("view %q filter %d is missing a 'column' field", v.Sheet, i+1)
		}
		pred, err := roster.NewPredicate(roster.Op(f.Op), f.Value, f.Values...)
		if err != nil {
			return roster.FilterSet{}, fmt.Errorf("view %q filter %d: %w", v.Sheet, i+1, err)
		}
		set.Rules = append(set.Rules, roster.FilterRule{Column: f.Column, Pred: pred})
	}
	return set, nil
}

// Marshal renders the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
