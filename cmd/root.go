// Package cmd contains all CLI commands for the rosterfmt binary.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdauth "github.com/klytics/rosterfmt/cmd/auth"
	"github.com/klytics/rosterfmt/cmd/completion"
	cmdconfig "github.com/klytics/rosterfmt/cmd/config"
	"github.com/klytics/rosterfmt/cmd/convert"
	"github.com/klytics/rosterfmt/cmd/doctor"
	"github.com/klytics/rosterfmt/cmd/fetch"
	"github.com/klytics/rosterfmt/cmd/inspect"
	cmdprofile "github.com/klytics/rosterfmt/cmd/profile"
	"github.com/klytics/rosterfmt/cmd/version"
	cmdwatch "github.com/klytics/rosterfmt/cmd/watch"
	"github.com/klytics/rosterfmt/internal/config"
	"github.com/klytics/rosterfmt/internal/logging"
	"github.com/klytics/rosterfmt/internal/output"
)

var (
	jsonOutput  bool
	debug       bool
	outPath     string
	profilePath string
	noColor     bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rosterfmt",
		Short: "Reformat staffing roster exports into styled Excel workbooks",
		Long: `rosterfmt — legacy .xls roster exports in, one styled .xlsx workbook out.

Each report in the active profile becomes a sheet with fixed-up cells, sized
columns, a table and frozen panes, followed by one filtered sheet per view.
Reports come from local files, a watched drop directory or an Outlook inbox.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			cfg, err := config.LoadForCommand(cmd.Flags())
			if err != nil {
				return output.Usage(err)
			}
			logging.Setup(cfg.Debug, noColor)
			return nil
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Output workbook path (default from profile or config: roster.xlsx)")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "Report profile YAML (default: built-in staff roster profile)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(convert.NewCommand())
	rootCmd.AddCommand(fetch.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(cmdprofile.NewCommand())
	rootCmd.AddCommand(cmdauth.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return
	}

	code := output.ExitCode(err)
	if jsonOutput {
		name := rootCmd.Name()
		if cmd != nil {
			name = cmd.CommandPath()
		}
		output.PrintJSONError(name, err, code)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	stop()
	os.Exit(code)
}
