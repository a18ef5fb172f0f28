// Package profile provides the "rosterfmt profile" commands for report profiles.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/cmd/cmdutil"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/profile"
)

// DefaultInitPath is where "profile init" writes when no path is given.
const DefaultInitPath = "rosterfmt-profile.yaml"

// NewCommand returns the profile command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show, create and check report profiles",
		Long: `A report profile lists the source reports, their label rows, column rules,
suppressed columns and filtered views. Without --profile the built-in staff
roster profile is used.`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Load(cmd)
			if err != nil {
				return err
			}
			if env.JSON {
				return output.PrintJSON("profile show", env.Profile)
			}
			data, err := env.Profile.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in profile to a file for editing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultInitPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := WriteDefault(path, force); err != nil {
				return output.Usage(err)
			}
			color.New(color.FgGreen).Printf("Wrote %s\n", path)
			fmt.Printf("Use it with: rosterfmt --profile %s convert <file.xls>\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a profile file (default: the active profile)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   *profile.Profile
				err error
			)
			if len(args) == 1 {
				p, err = profile.Load(args[0])
			} else {
				var env *cmdutil.Env
				env, err = cmdutil.Load(cmd)
				if env != nil {
					p = env.Profile
				}
			}
			if err != nil {
				return output.Usage(err)
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return output.PrintJSON("profile validate", map[string]any{
					"name":    p.Name,
					"reports": len(p.Reports),
					"sheets":  p.SheetNames(),
				})
			}
			color.New(color.FgGreen).Printf("Profile %q is valid\n", p.Name)
			fmt.Printf("  %d report(s), sheets: %s\n", len(p.Reports), strings.Join(p.SheetNames(), ", "))
			return nil
		},
	}
}

// WriteDefault writes the built-in profile to path, refusing to overwrite
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists — pass --force to overwrite", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, profile.DefaultYAML(), 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
