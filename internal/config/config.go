// Package config manages application configuration from files and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LocalFile is the per-directory config file merged over the user config.
const LocalFile = "rosterfmt.yaml"

// Config holds the application configuration.
type Config struct {
	Output  string `mapstructure:"output"`
	Profile string `mapstructure:"profile"`
	Debug   bool   `mapstructure:"debug"`
	Azure   struct {
		ClientID string `mapstructure:"client_id"`
	} `mapstructure:"azure"`
	Mail struct {
		SinceDays int    `mapstructure:"since_days"`
		MarkRead  bool   `mapstructure:"mark_read"`
		SaveDir   string `mapstructure:"save_dir"`
	} `mapstructure:"mail"`
	Watch struct {
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// flagKeys maps persistent flag names onto config keys.
var flagKeys = map[string]string{
	"out":     "output",
	"profile": "profile",
	"debug":   "debug",
}

// Load reads .env, ~/.rosterfmt/config.yaml, ./rosterfmt.yaml and ROSTER_*
// environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())
	setDefaults()

	viper.SetEnvPrefix("ROSTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read %s: %w", ConfigPath(), err)
		}
	}

	if _, err := os.Stat(LocalFile); err == nil {
		viper.SetConfigFile(LocalFile)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("could not read %s: %w", LocalFile, err)
		}
		log.Debug().Str("file", LocalFile).Msg("merged local config")
	}

	return Current()
}

// LoadForCommand loads the config and binds the given flags over it, so a
// flag set on the command line wins over every other source.
func LoadForCommand(flags *pflag.FlagSet) (*Config, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}
	if err := BindFlags(flags); err != nil {
		return nil, err
	}
	return Current()
}

// BindFlags binds the persistent flags present in flags to their config keys.
func BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("could not bind --%s: %w", name, err)
		}
	}
	return nil
}

// Current returns the configuration as last loaded.
func Current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("output", "roster.xlsx")
	viper.SetDefault("profile", "")
	viper.SetDefault("debug", false)
	viper.SetDefault("azure.client_id", "")
	viper.SetDefault("mail.since_days", 7)
	viper.SetDefault("mail.mark_read", false)
	viper.SetDefault("mail.save_dir", "")
	viper.SetDefault("watch.debounce_ms", 500)
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rosterfmt"
	}
	return filepath.Join(home, ".rosterfmt")
}

// ConfigPath returns the path to the user config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}
