// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/rosterfmt/internal/config"
	"github.com/klytics/rosterfmt/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rosterfmt configuration",
		Long: `View and modify rosterfmt settings.

Settings are read from ~/.rosterfmt/config.yaml, then ./rosterfmt.yaml, then
ROSTER_* environment variables (a .env file in the working directory is
loaded first). Command-line flags win over all of them.`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				settings := make(map[string]any, len(config.Keys))
				for _, key := range config.Keys {
					settings[key] = viper.Get(key)
				}
				return output.PrintJSON("config show", settings)
			}

			fmt.Print(config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(args[0], args[1]); err != nil {
				return output.Usage(err)
			}
			fmt.Printf("Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			val := config.Get(args[0])
			if val == "" {
				fmt.Printf("%s: (not set)\n", args[0])
			} else {
				fmt.Printf("%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			issues := config.Validate()

			if jsonFlag {
				return output.PrintJSON("config validate", issues)
			}

			errors := 0
			warnings := 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					errors++
				case "warning":
					warnings++
				}
			}

			if errors == 0 && warnings == 0 {
				color.New(color.FgGreen).Println("Configuration is valid")
				return nil
			}

			fmt.Printf("Config validation: %d errors, %d warnings\n\n", errors, warnings)

			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					color.New(color.FgRed).Printf("  %s\n", issue.Message)
				case "warning":
					color.New(color.FgYellow).Printf("  %s\n", issue.Message)
				case "info":
					color.New(color.FgGreen).Printf("  %s\n", issue.Message)
				}
				if issue.Fix != "" {
					fmt.Printf("   Fix: %s\n", issue.Fix)
				}
			}
			if config.HasErrors(issues) {
				return output.Usage(fmt.Errorf("%d config error(s)", errors))
			}
			return nil
		},
	}
}
