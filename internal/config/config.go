// Package config loads pdcheck settings from compiled defaults, an optional
// YAML file and PDCHECK_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
	"gopkg.in/yaml.v3"
)

// Source configures one bibliographic source
type Source struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url,omitempty"`
	// MinInterval is the minimum delay between requests, e.g. "1s"
	MinInterval time.Duration `yaml:"min_interval,omitempty"`
}

// Config is everything the CLI and server need to build an analyzer
type Config struct {
	Country          string        `yaml:"country"`
	DBPath           string        `yaml:"db_path"`
	UserAgent        string        `yaml:"user_agent"`
	SourceTimeout    time.Duration `yaml:"source_timeout"`
	BatchConcurrency int           `yaml:"batch_concurrency"`
	// CurrentYear pins the calculator's clock; zero means the wall clock
	CurrentYear int `yaml:"current_year"`

	Sources    map[string]Source    `yaml:"sources"`
	Precedence reconcile.Precedence `yaml:"precedence"`
	Relevance  relevance.Params     `yaml:"relevance"`
	Identity   identity.Params      `yaml:"identity"`
}

// Default returns the compiled-in configuration
func Default() Config {
	return Config{
		Country:          "US",
		DBPath:           "pdcheck.db",
		UserAgent:        "pdcheck/0.1 (copyright research tool)",
		SourceTimeout:    30 * time.Second,
		BatchConcurrency: 4,
		Sources: map[string]Source{
			sources.LOCName:         {Enabled: true},
			sources.MusicBrainzName: {Enabled: true},
			sources.HathiTrustName:  {Enabled: true},
		},
		Precedence: reconcile.DefaultPrecedence(),
		Relevance:  relevance.DefaultParams(),
		Identity:   identity.DefaultParams(),
	}
}

// Load builds a Config. path may be empty, in which case PDCHECK_CONFIG is
// consulted; a missing file named by either is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PDCHECK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	cfg.Country = copyright.NormalizeCountry(cfg.Country)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PDCHECK_COUNTRY"); v != "" {
		c.Country = v
	}
	if v := os.Getenv("PDCHECK_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("PDCHECK_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("PDCHECK_SOURCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PDCHECK_SOURCE_TIMEOUT: %w", err)
		}
		c.SourceTimeout = d
	}
	if v := os.Getenv("PDCHECK_CURRENT_YEAR"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PDCHECK_CURRENT_YEAR: %w", err)
		}
		c.CurrentYear = y
	}
	return nil
}

// Validate checks the configuration against the calculators registered in
// registry. An unregistered country is a ConfigurationError.
func (c Config) Validate(registry *copyright.Registry) error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got %s", c.SourceTimeout)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1, got %d", c.BatchConcurrency)
	}
	if err := c.Precedence.Validate(); err != nil {
		return err
	}
	if t := c.Identity.Threshold; t <= 0 || t > 1 {
		return fmt.Errorf("identity threshold must be in (0,1], got %v", t)
	}
	if err := registry.Require(c.Country); err != nil {
		return err
	}
	return nil
}

// SourceOptions returns adapter options for the named source
func (c Config) SourceOptions(name string) sources.Options {
	s := c.Sources[name]
	return sources.Options{
		BaseURL:     s.BaseURL,
		Timeout:     c.SourceTimeout,
		MinInterval: s.MinInterval,
		UserAgent:   c.UserAgent,
	}
}

// SourceEnabled reports whether the named source should be queried
func (c Config) SourceEnabled(name string) bool {
	s, ok := c.Sources[name]
	return ok && s.Enabled
}
