// Package config reads the optional YAML defaults file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/d1j/facebook-stats/internal/data/aggregator"
)

// DefaultPath is used when --config is not given
const DefaultPath = "~/.facebook-stats/config.yaml"

// Config mirrors the command line flags. Zero values mean "not set" and leave
// the flag default in place.
type Config struct {
	Dir             string `yaml:"dir,omitempty"`
	CacheDir        string `yaml:"cache_dir,omitempty"`
	DB              string `yaml:"db,omitempty"`
	Reaction        string `yaml:"reaction,omitempty"` // emoji, "cha" or "any"
	Timezone        string `yaml:"timezone,omitempty"`
	Output          string `yaml:"output,omitempty"`
	Granularity     string `yaml:"granularity,omitempty"`
	Metric          string `yaml:"metric,omitempty"`
	Direction       string `yaml:"direction,omitempty"`
	Concurrency     int    `yaml:"concurrency,omitempty"`
	DiscoverSenders bool   `yaml:"discover_senders,omitempty"`
	RawEncoding     bool   `yaml:"raw_encoding,omitempty"`
	Dedupe          bool   `yaml:"dedupe,omitempty"`
	NoCache         bool   `yaml:"no_cache,omitempty"`
	Debounce        string `yaml:"debounce,omitempty"` // watch re-run delay, e.g. "2s"
}

// Validate checks the values that have a fixed vocabulary
func (c *Config) Validate() error {
	if c.Granularity != "" {
		if _, err := aggregator.ParseGranularity(c.Granularity); err != nil {
			return err
		}
	}
	if c.Metric != "" {
		if _, err := aggregator.ParseMetric(c.Metric); err != nil {
			return err
		}
	}
	if c.Direction != "" {
		if _, err := aggregator.ParseDirection(c.Direction); err != nil {
			return err
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}
	if c.Debounce != "" {
		if d, err := time.ParseDuration(c.Debounce); err != nil || d <= 0 {
			return fmt.Errorf("invalid debounce %q: use a positive duration such as 2s", c.Debounce)
		}
	}
	return nil
}

// Load reads and validates the config file at path. A missing file yields an
// empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return &config, nil
}

// FlagValues returns the set values keyed by flag name.
func (c *Config) FlagValues() map[string]string {
	values := make(map[string]string)
	set := func(flag, value string) {
		if value != "" {
			values[flag] = value
		}
	}
	setBool := func(flag string, value bool) {
		if value {
			values[flag] = "true"
		}
	}

	set("dir", c.Dir)
	set("cache-dir", c.CacheDir)
	set("db", c.DB)
	set("reaction", c.Reaction)
	set("timezone", c.Timezone)
	set("output", c.Output)
	set("granularity", c.Granularity)
	set("metric", c.Metric)
	set("direction", c.Direction)
	if c.Concurrency > 0 {
		values["concurrency"] = strconv.Itoa(c.Concurrency)
	}
	setBool("discover-senders", c.DiscoverSenders)
	setBool("raw-encoding", c.RawEncoding)
	setBool("dedupe", c.Dedupe)
	setBool("no-cache", c.NoCache)
	set("debounce", c.Debounce)

	return values
}
