// Package config loads cmd/steprun's operator-facing settings: source
// directories to load .step files from, the SQL bind-hook DSN, the
// websocket listen address, and the output size limit.
//
// Grounded on internal/config/config.go's DefaultConfig/Load pattern from
// the codenerd pack repo (defaults struct, yaml.Unmarshal over them,
// environment overrides) and on the go-units byte-size convention used
// for human-readable resource limits across the pack.
package config

import (
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

// Config is cmd/steprun's top-level settings file.
type Config struct {
	// Sources lists local directories, s3:// prefixes, or .tar.lz4 bundle
	// paths to load .step definitions from at startup.
	Sources []string `yaml:"sources"`

	// Watch, if true, passes the first entry of Sources to
	// loader.Loader.Watch, which reloads a single .step file; a directory,
	// s3:// prefix or bundle entry is not watched (the watch fails and is
	// logged).
	Watch bool `yaml:"watch"`

	SQL   SQLConfig   `yaml:"sql"`
	Serve ServeConfig `yaml:"serve"`

	// MaxOutputSize is an output size limit expressed as a human-readable
	// size ("10MB", "512KB"); empty means unbounded. MaxOutputBytes parses
	// it, but cmd/steprun does not apply it to a call's rendered text.
	MaxOutputSize string `yaml:"max_output_size"`
}

// SQLConfig configures the optional sqlstate bind hook.
type SQLConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// ServeConfig configures the optional netserve websocket listener.
type ServeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the settings cmd/steprun falls back to when no config
// file is given: no sources, no watch, no SQL hook, serving off, and a
// 10MB output cap.
func Default() *Config {
	return &Config{
		Serve:         ServeConfig{Addr: ":4242"},
		MaxOutputSize: "10MB",
	}
}

// Load reads path as YAML over Default's values. A missing file is not an
// error — it yields the defaults unchanged, matching the pack's
// "absent config file means run with defaults" convention.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// MaxOutputBytes parses MaxOutputSize via go-units, returning 0 (no limit)
// when the field is empty.
func (c *Config) MaxOutputBytes() (int64, error) {
	if c.MaxOutputSize == "" {
		return 0, nil
	}
	return units.FromHumanSize(c.MaxOutputSize)
}
