package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/rosterfmt/internal/profile"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Keys lists every settable config key.
var Keys = []string{
	"output",
	"profile",
	"debug",
	"azure.client_id",
	"mail.since_days",
	"mail.mark_read",
	"mail.save_dir",
	"watch.debounce_ms",
}

var intKeys = map[string]bool{"mail.since_days": true, "watch.debounce_ms": true}
var boolKeys = map[string]bool{"debug": true, "mail.mark_read": true}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	out := viper.GetString("output")
	if !strings.EqualFold(filepath.Ext(out), ".xlsx") {
		issues = append(issues, ConfigIssue{
			Key:      "output",
			Severity: "error",
			Message:  fmt.Sprintf("output %q must end in .xlsx", out),
			Fix:      "rosterfmt config set output roster.xlsx",
		})
	}

	if path := viper.GetString("profile"); path != "" {
		if _, err := profile.Load(path); err != nil {
			issues = append(issues, ConfigIssue{
				Key:      "profile",
				Severity: "error",
				Message:  err.Error(),
				Fix:      "rosterfmt profile validate " + path,
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      "profile",
				Severity: "info",
				Message:  "profile " + path + " is valid",
			})
		}
	}

	if viper.GetString("azure.client_id") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "azure.client_id",
			Severity: "warning",
			Message:  "Azure client ID is not set — rosterfmt fetch will not work",
			Fix:      "export ROSTER_AZURE_CLIENT_ID=...\nOr: rosterfmt config set azure.client_id ...",
		})
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "azure.client_id",
			Severity: "info",
			Message:  "Microsoft 365 client ID configured",
		})
	}

	if days := viper.GetInt("mail.since_days"); days <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "mail.since_days",
			Severity: "error",
			Message:  fmt.Sprintf("mail.since_days must be positive, got %d", days),
			Fix:      "rosterfmt config set mail.since_days 7",
		})
	}

	if ms := viper.GetInt("watch.debounce_ms"); ms < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "watch.debounce_ms",
			Severity: "error",
			Message:  fmt.Sprintf("watch.debounce_ms must not be negative, got %d", ms),
			Fix:      "rosterfmt config set watch.debounce_ms 500",
		})
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []ConfigIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !isKey(key) {
		return fmt.Errorf("unknown config key %q — valid keys: %s", key, strings.Join(Keys, ", "))
	}

	var v any = value
	switch {
	case intKeys[key]:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s needs a whole number, got %q", key, value)
		}
		v = n
	case boolKeys[key]:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s needs true or false, got %q", key, value)
		}
		v = b
	}

	viper.Set(key, v)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

func isKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// SaveConfig writes the settable keys to ~/.rosterfmt/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	// write through a fresh instance so bound flags and env values stay out of the file
	out := viper.New()
	for _, key := range Keys {
		out.Set(key, viper.Get(key))
	}

	path := filepath.Join(dir, "config.yaml")
	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Set secure permissions
	os.Chmod(path, 0600)
	return nil
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	for _, key := range keys {
		value := viper.GetString(key)
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("  %-18s %s\n", key+":", value))
	}
	return sb.String()
}
