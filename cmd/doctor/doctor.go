// Package doctor provides the "rosterfmt doctor" command for checking setup.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/rosterfmt/internal/auth"
	"github.com/klytics/rosterfmt/internal/config"
	"github.com/klytics/rosterfmt/internal/output"
	"github.com/klytics/rosterfmt/internal/profile"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, profile and sign-in",
		Long:  "Run diagnostic checks to verify rosterfmt is ready to convert and fetch reports.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Current()
			if err != nil {
				return output.Usage(err)
			}
			checks := RunChecks(cfg)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("doctor", checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("rosterfmt doctor")
			fmt.Println("================")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return output.Usage(fmt.Errorf("%d check(s) failed", errCount))
			}
			return nil
		},
	}
}

// RunChecks inspects the local setup described by cfg.
func RunChecks(cfg *config.Config) []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}

	if _, err := os.Stat(config.ConfigPath()); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: config.ConfigPath()})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found — defaults in use (rosterfmt config set <key> <value> creates it)",
		})
	}

	if p, err := profile.Load(cfg.Profile); err != nil {
		checks = append(checks, Check{Name: "Profile", Status: "error", Message: err.Error()})
	} else {
		source := cfg.Profile
		if source == "" {
			source = "built-in"
		}
		checks = append(checks, Check{
			Name:    "Profile",
			Status:  "ok",
			Message: fmt.Sprintf("%s (%s): %d report(s), %d sheet(s)", p.Name, source, len(p.Reports), len(p.SheetNames())),
		})
	}

	checks = append(checks, outputCheck(cfg.Output))

	if cfg.Azure.ClientID != "" {
		checks = append(checks, Check{Name: "Azure Client ID", Status: "ok", Message: "azure.client_id set"})
	} else {
		checks = append(checks, Check{
			Name:    "Azure Client ID",
			Status:  "warning",
			Message: fmt.Sprintf("Not set — required for fetch (config azure.client_id or %s)", auth.ClientIDEnv),
		})
	}

	switch token, err := auth.LoadToken(); {
	case err != nil:
		checks = append(checks, Check{
			Name:    "Auth Token",
			Status:  "warning",
			Message: "Not authenticated — run 'rosterfmt auth login' to fetch from Outlook",
		})
	case token.IsExpired() && token.RefreshToken == "":
		checks = append(checks, Check{Name: "Auth Token", Status: "warning", Message: "Expired — run 'rosterfmt auth login'"})
	default:
		checks = append(checks, Check{Name: "Auth Token", Status: "ok", Message: "Token file exists"})
	}

	return checks
}

func outputCheck(out string) Check {
	dir := filepath.Dir(out)
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return Check{Name: "Output", Status: "ok", Message: out}
	case os.IsNotExist(err):
		return Check{Name: "Output", Status: "warning", Message: fmt.Sprintf("%s does not exist yet — it will be created", dir)}
	case err == nil:
		return Check{Name: "Output", Status: "error", Message: fmt.Sprintf("%s is not a directory", dir)}
	default:
		return Check{Name: "Output", Status: "error", Message: err.Error()}
	}
}
