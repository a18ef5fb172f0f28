// Package convert provides the "rosterfmt convert" command for local .xls files.
package convert

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/cmd/cmdutil"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/pipeline"
	"github.com/klytics/rosterfmt/internal/profile"
)

// NewCommand creates the "convert" command.
func NewCommand() *cobra.Command {
	var reportID string

	cmd := &cobra.Command{
		Use:   "convert <file.xls> [file.xls...]",
		Short: "Reformat local .xls report exports into one workbook",
		Long: `Reformat local .xls report exports into one styled .xlsx workbook.

Each file is matched to a profile report by its file_pattern. A profile with a
single report accepts any .xls file. Use --report to pick the report for a
single file explicitly.

Examples:
  rosterfmt convert "Staff Roster_Dec 23.xls"
  rosterfmt convert roster.xls lodging.xls --profile ops.yaml -o ops.xlsx
  rosterfmt convert export.xls --report roster`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd)
			if err != nil {
				return err
			}

			paths, only, err := Assign(env.Profile, args, reportID)
			if err != nil {
				return output.Usage(err)
			}

			runner := &pipeline.Runner{
				Profile: env.Profile,
				Source:  pipeline.FileSource{Paths: paths},
				Only:    only,
			}
			res, err := runner.Run(cmd.Context(), env.Output)
			if err != nil {
				return cmdutil.Classify(err)
			}

			if env.JSON {
				return output.PrintJSON("convert", res)
			}
			output.PrintResult(os.Stdout, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportID, "report", "r", "", "Profile report for a single input file")
	return cmd
}

// Assign maps each input file onto its profile report. It returns the
// report ID → path map and the report IDs in input order.
func Assign(p *profile.Profile, files []string, reportID string) (map[string]string, []string, error) {
	if reportID != "" && len(files) != 1 {
		return nil, nil, fmt.Errorf("--report takes exactly one input file, got %d", len(files))
	}

	paths := make(map[string]string, len(files))
	var only []string
	for _, f := range files {
		var report *profile.Report
		if reportID != "" {
			r, err := p.Report(reportID)
			if err != nil {
				return nil, nil, err
			}
			report = r
		} else {
			r, ok := p.MatchFile(f)
			if !ok {
				return nil, nil, fmt.Errorf("no report in profile %q matches %s — pass --report or add a file_pattern", p.Name, f)
			}
			report = r
		}

		if prev, dup := paths[report.ID]; dup {
			return nil, nil, fmt.Errorf("both %s and %s match report %q — convert them in separate runs", prev, f, report.ID)
		}
		paths[report.ID] = f
		only = append(only, report.ID)
	}
	return paths, only, nil
}
