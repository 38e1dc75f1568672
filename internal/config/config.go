// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package config loads and validates the querent configuration from file,
// environment, and defaults.
package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Config is the top-level querent configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Ask      AskConfig      `mapstructure:"ask"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
}

// ProviderConfig holds credentials and endpoint for the LLM backend.
// APIKey may be left empty here and resolved from the environment or the
// system keyring instead.
type ProviderConfig struct {
	Backend    string `mapstructure:"backend"`
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`
}

// AskConfig tunes the question-answering loop.
type AskConfig struct {
	MaxRetries         int    `mapstructure:"max_retries"`
	ComposeRowCap      int    `mapstructure:"compose_row_cap"`
	ValidateRowCap     int    `mapstructure:"validate_row_cap"`
	SchemaPredicateCap int    `mapstructure:"schema_predicate_cap"`
	SchemaSampleCap    int    `mapstructure:"schema_sample_cap"`
	SchemaSampleFilter string `mapstructure:"schema_sample_filter"`
}

// GraphConfig points at the SPARQL endpoint holding the card graph.
type GraphConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Dataset  string        `mapstructure:"dataset"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// IngestConfig controls where card data is downloaded and staged.
type IngestConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// StorageConfig locates the session history database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig controls the HTTP API listener.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix QUERENT_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	// Environment
	v.SetEnvPrefix("QUERENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, qerr.Errorf(qerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, qerr.Errorf(qerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, qerr.Errorf(qerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider.backend", "azure")
	v.SetDefault("provider.api_version", "2024-02-15-preview")
	v.SetDefault("ask.max_retries", 3)
	v.SetDefault("ask.compose_row_cap", 20)
	v.SetDefault("ask.validate_row_cap", 10)
	v.SetDefault("ask.schema_predicate_cap", 100)
	v.SetDefault("ask.schema_sample_cap", 5)
	v.SetDefault("ask.schema_sample_filter", "counterspell")
	v.SetDefault("graph.endpoint", "http://localhost:3030")
	v.SetDefault("graph.dataset", "mtg")
	v.SetDefault("graph.timeout", "30s")
	v.SetDefault("ingest.data_dir", defaultDataDir())
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("server.listen", "127.0.0.1:18030")
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateProvider()...)
	errs = append(errs, c.validateAsk()...)
	errs = append(errs, c.validateGraph()...)
	errs = append(errs, c.validateServer()...)

	return errs
}

func (c *Config) validateProvider() []error {
	var errs []error

	validBackends := map[string]bool{"azure": true, "anthropic": true}
	if !validBackends[c.Provider.Backend] {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: provider.backend must be one of [azure, anthropic], got %q",
			c.Provider.Backend,
		))
	}

	// Credentials are intentionally not validated here: api_key and
	// deployment may arrive from the environment or the keyring, and
	// commands that never touch the model don't need them at all.

	return errs
}

func (c *Config) validateAsk() []error {
	var errs []error

	positive := []struct {
		key   string
		value int
	}{
		{"ask.max_retries", c.Ask.MaxRetries},
		{"ask.compose_row_cap", c.Ask.ComposeRowCap},
		{"ask.validate_row_cap", c.Ask.ValidateRowCap},
		{"ask.schema_predicate_cap", c.Ask.SchemaPredicateCap},
		{"ask.schema_sample_cap", c.Ask.SchemaSampleCap},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
				"config: %s must be greater than 0, got %d", p.key, p.value,
			))
		}
	}

	if c.Ask.SchemaSampleFilter == "" {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: ask.schema_sample_filter must not be empty"))
	}

	return errs
}

func (c *Config) validateGraph() []error {
	var errs []error

	if c.Graph.Endpoint == "" {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue, "config: graph.endpoint must not be empty"))
	} else if u, err := url.Parse(c.Graph.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: graph.endpoint must be an http(s) URL, got %q",
			c.Graph.Endpoint,
		))
	}

	if c.Graph.Dataset == "" {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue, "config: graph.dataset must not be empty"))
	}

	if c.Graph.Timeout <= 0 {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: graph.timeout must be greater than 0, got %s",
			c.Graph.Timeout,
		))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, qerr.Errorf(qerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

// defaultStoragePath returns ~/.local/share/querent/querent.db, falling
// back to a working-directory file when the home directory is unknown.
func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "querent.db"
	}
	return filepath.Join(home, ".local", "share", "querent", "querent.db")
}

// defaultDataDir returns ~/.local/share/querent/data with the same fallback.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "querent", "data")
}
