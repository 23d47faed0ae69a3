// Package config holds the run configuration of cosa-rojig-repoize.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	repoerrors "github.com/cgwalters/cosa-rojig-repoize/errors"
)

// DefaultHistory is the number of most recent builds inspected per run.
const DefaultHistory = 10

// Config represents the complete configuration of one sync run
type Config struct {
	// Stream is the base URL of the coreos-assembler build stream
	Stream string `yaml:"stream"`

	// Target is the repository location, s3://bucket/prefix or file:///path
	Target string `yaml:"target"`

	// History caps how many build ids are inspected, in manifest order
	History int `yaml:"history"`

	// Arch is the target architecture; empty means detect it
	Arch string `yaml:"arch"`

	// HTTPTimeout bounds each build stream request; zero means none
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// DryRun performs reads only
	DryRun bool `yaml:"dry_run"`

	AWS AWSConfig `yaml:"aws"`
	Log LogConfig `yaml:"log"`
}

// AWSConfig configures the S3 client
type AWSConfig struct {
	Region         string `yaml:"region"`
	Profile        string `yaml:"profile"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		History: DefaultHistory,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. It does not validate, since
// command line values may still be merged in.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, repoerrors.NewConfigError("load", fmt.Errorf("failed to read config file: %w", err))
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, repoerrors.NewConfigError("load", fmt.Errorf("failed to parse config file %s: %w", path, err))
	}

	cfg.expandEnv()
	return cfg, nil
}

// expandEnv expands environment variables in location fields
func (c *Config) expandEnv() {
	c.Stream = os.ExpandEnv(c.Stream)
	c.Target = os.ExpandEnv(c.Target)
	c.AWS.Profile = os.ExpandEnv(c.AWS.Profile)
	c.AWS.Endpoint = os.ExpandEnv(c.AWS.Endpoint)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var problems []string

	if c.Stream == "" {
		problems = append(problems, "stream URL is required")
	}
	if c.Target == "" {
		problems = append(problems, "target URL is required")
	}
	if c.History < 0 {
		problems = append(problems, fmt.Sprintf("history must not be negative: %d", c.History))
	}
	if c.HTTPTimeout < 0 {
		problems = append(problems, fmt.Sprintf("http_timeout must not be negative: %s", c.HTTPTimeout))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(problems) > 0 {
		return repoerrors.NewConfigError("validate",
			fmt.Errorf("%w: %s", repoerrors.ErrInvalidInput, strings.Join(problems, "; ")))
	}
	return nil
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", l.Level)
}
