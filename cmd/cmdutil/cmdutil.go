// Package cmdutil holds the setup shared by the rosterfmt subcommands.
package cmdutil

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/internal/config"
	"github.com/klytics/rosterfmt/internal/formats/xls"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/pipeline"
	"github.com/klytics/rosterfmt/internal/profile"
	"github.com/klytics/rosterfmt/internal/roster"
)

// Env is the resolved configuration and profile for one command run.
type Env struct {
	Config  *config.Config
	Profile *profile.Profile
	// Output is the workbook path: --out, then the profile's output, then config.
	Output string
	JSON   bool
}

// Load resolves the configuration and active profile for cmd.
func Load(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.Current()
	if err != nil {
		return nil, output.Usage(err)
	}
	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		return nil, output.Usage(err)
	}

	env := &Env{Config: cfg, Profile: prof, Output: cfg.Output}
	env.JSON, _ = cmd.Flags().GetBool("json")
	if f := cmd.Flags().Lookup("out"); (f == nil || !f.Changed) && prof.Output != "" {
		env.Output = prof.Output
	}
	return env, nil
}

// inputErrors are conversion failures fixed by changing the source files or
// the profile rather than by retrying.
var inputErrors = []error{
	xls.ErrFileNotFound,
	xls.ErrNotXLS,
	pipeline.ErrReportNotFound,
	profile.ErrUnknownReport,
	profile.ErrNoMatchingReport,
	roster.ErrNoLabelRow,
	roster.ErrUnknownColumn,
	roster.ErrDuplicateHeader,
}

// Classify marks err as a user error when it stems from bad input, so the
// process exits with output.ExitUserError. Other errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ue *output.UserError
	if errors.As(err, &ue) {
		return err
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return output.Usage(err)
		}
	}
	return err
}
