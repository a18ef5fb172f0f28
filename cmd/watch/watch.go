// Package watch provides the "rosterfmt watch" command, which converts report
// exports as they land in drop directories.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/cmd/cmdutil"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/pipeline"
	"github.com/klytics/rosterfmt/internal/profile"
	w "github.com/klytics/rosterfmt/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch <directory> [directory...]",
		Short: "Convert report exports as they are dropped into directories",
		Long: `Watch directories for .xls files matching a profile report and rewrite the
output workbook from each one once it has stopped changing.

Example:
  rosterfmt watch ~/Downloads --out ~/Desktop/roster.xlsx
  rosterfmt watch ./drop -r --debounce 2000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = env.Config.Watch.DebounceMS
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Recursive:   recursive,
				Debounce:    time.Duration(debounce) * time.Millisecond,
				Match:       Matcher(env.Profile),
			}, Handler(env.Profile, env.Output, env.JSON))
			if err != nil {
				return err
			}

			if !env.JSON {
				fmt.Printf("Watching %d directory(ies) for %v → %s\n", len(args), env.Profile.SheetNames(), env.Output)
				fmt.Println("Press Ctrl+C to stop")
			}

			if err := watcher.Start(cmd.Context()); err != nil {
				return err
			}

			status := watcher.GetStatus()
			if env.JSON {
				return output.PrintJSON("watch", map[string]any{
					"status": status,
					"events": watcher.GetEvents(),
				})
			}
			fmt.Printf("\nStopped: %d processed, %d failed\n", status.Processed, status.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Quiet period in milliseconds before a file is converted (default from watch.debounce_ms)")

	return cmd
}

// Matcher accepts the files some report of p claims.
func Matcher(p *profile.Profile) func(path string) bool {
	return func(path string) bool {
		_, ok := p.MatchFile(path)
		return ok
	}
}

// Handler converts one dropped file with its matching report and writes out.
func Handler(p *profile.Profile, out string, quiet bool) w.Handler {
	return func(ctx context.Context, path string) error {
		report, ok := p.MatchFile(path)
		if !ok {
			return output.Usage(fmt.Errorf("%w in profile %q for %s", profile.ErrNoMatchingReport, p.Name, path))
		}

		runner := &pipeline.Runner{
			Profile: p,
			Source:  pipeline.FileSource{Paths: map[string]string{report.ID: path}},
			Only:    []string{report.ID},
		}
		res, err := runner.Run(ctx, out)
		if err != nil {
			if !quiet {
				color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
			}
			return cmdutil.Classify(err)
		}
		if !quiet {
			output.PrintResult(os.Stdout, res)
		}
		return nil
	}
}
