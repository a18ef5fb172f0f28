package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/klytics/rosterfmt/internal/pipeline"
)

// PrintResult writes a human summary of a completed run to w.
func PrintResult(w io.Writer, res *pipeline.Result) {
	color.New(color.FgGreen).Fprintf(w, "Wrote %s", res.Output)
	fmt.Fprintf(w, " (%d sheets, %s)\n", len(res.Sheets), res.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range res.Sheets {
		kind := "report"
		if s.View {
			kind = "view"
		}
		table := s.Table
		if table == "" {
			table = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%d rows\t%s\n", s.Name, kind, s.DataRows, table)
	}
	tw.Flush()
}
