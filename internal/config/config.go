// Package config provides configuration loading for threatscore.
// It supports a layered configuration approach with priority:
// CLI flags > environment variables (THREATSCORE_*) > config file (~/.threatscore.yaml).
// A .env file in the working directory is read into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "THREATSCORE"

// CheckSet is a named list of checks known to pass on a platform.
type CheckSet struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Platform string   `mapstructure:"platform" yaml:"platform"`
	Inactive []string `mapstructure:"inactive" yaml:"inactive"`
}

// Config holds all threatscore configuration options.
type Config struct {
	Branch       string            `mapstructure:"branch" yaml:"branch"`
	BaseURL      string            `mapstructure:"base_url" yaml:"base_url"`
	OutputFormat string            `mapstructure:"output_format" yaml:"output_format"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Concurrency  int               `mapstructure:"concurrency" yaml:"concurrency"`
	Retries      int               `mapstructure:"retries" yaml:"retries"`
	CheckSets    []CheckSet        `mapstructure:"check_sets" yaml:"check_sets"`
	LocalFiles   map[string]string `mapstructure:"local_files" yaml:"local_files"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Branch:       threatmodel.DefaultBranch,
		BaseURL:      threatmodel.DefaultBaseURL,
		OutputFormat: "text",
		Timeout:      30 * time.Second,
		Concurrency:  5,
	}
}

// Load reads configuration from ~/.threatscore.yaml and environment variables.
// It does NOT apply CLI flag overrides; call ApplyFlags for that.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName(".threatscore")
	v.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return unmarshal(v)
}

// ApplyFlags overrides config values with any CLI flags that were explicitly set.
func ApplyFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("branch") {
		val, _ := flags.GetString("branch")
		cfg.Branch = val
	}
	if flags.Changed("base-url") {
		val, _ := flags.GetString("base-url")
		cfg.BaseURL = val
	}
	if flags.Changed("output") {
		val, _ := flags.GetString("output")
		cfg.OutputFormat = val
	}
	if flags.Changed("concurrency") {
		val, _ := flags.GetInt("concurrency")
		cfg.Concurrency = val
	}
	if flags.Changed("timeout") {
		val, _ := flags.GetDuration("timeout")
		cfg.Timeout = val
	}
	if flags.Changed("retries") {
		val, _ := flags.GetInt("retries")
		cfg.Retries = val
	}
}

// GetCheckSet returns the check set with the given name, or nil if not found.
func (c *Config) GetCheckSet(name string) *CheckSet {
	for i := range c.CheckSets {
		if c.CheckSets[i].Name == name {
			return &c.CheckSets[i]
		}
	}
	return nil
}

// LocalFile returns the configured threat model path for a platform, if any.
func (c *Config) LocalFile(platform types.Platform) (string, bool) {
	for key, path := range c.LocalFiles {
		if strings.EqualFold(key, string(platform)) && path != "" {
			return path, true
		}
	}
	return "", false
}

// ConfigFilePath returns the default config file path (~/.threatscore.yaml).
func ConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".threatscore.yaml"
	}
	return filepath.Join(home, ".threatscore.yaml")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv reads KEY=value pairs into the process environment. Variables
// already set are left alone and a missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("branch", d.Branch)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("retries", d.Retries)
}
