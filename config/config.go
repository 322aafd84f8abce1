// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds runtime settings for the medrank tools.
//
// Settings start from DefaultConfig, are optionally overlaid by a YAML file
// (LoadFile) and finally by functional options, which is how command-line
// flags are applied.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for building, persisting and querying indexes.
type Config struct {
	// DatabasePath is the BadgerDB directory. It has no default here; the
	// medrank command falls back to ./medrank_db when it is empty.
	DatabasePath string `yaml:"database"`

	// IndexName names the persisted index inside the database.
	// Default: "default"
	IndexName string `yaml:"index_name"`

	// CatalogPath is a CSV catalog. When empty the synthetic catalog
	// generated from SyntheticSeed is used.
	CatalogPath string `yaml:"catalog"`

	// SyntheticSeed seeds the synthetic catalog.
	// Default: 42
	SyntheticSeed uint64 `yaml:"synthetic_seed"`

	// TopN is the number of matches returned by a query.
	// Default: 5
	TopN int `yaml:"top_n"`

	// HistorySize is the number of top matches stored with each history entry.
	// Default: 3
	HistorySize int `yaml:"history_size"`

	// PoolSize is the number of workers used for batch ranking.
	// Zero means runtime.NumCPU().
	PoolSize int `yaml:"pool_size"`

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LockTimeout bounds how long file export and import wait for a lock.
	// Default: 10s
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDatabasePath sets the database directory.
func WithDatabasePath(path string) ConfigOption {
	return func(c *Config) {
		c.DatabasePath = path
	}
}

// WithIndexName sets the persisted index name.
func WithIndexName(name string) ConfigOption {
	return func(c *Config) {
		c.IndexName = name
	}
}

// WithCatalogPath sets the CSV catalog path.
func WithCatalogPath(path string) ConfigOption {
	return func(c *Config) {
		c.CatalogPath = path
	}
}

// WithSyntheticSeed sets the synthetic catalog seed.
func WithSyntheticSeed(seed uint64) ConfigOption {
	return func(c *Config) {
		c.SyntheticSeed = seed
	}
}

// WithTopN sets the default number of matches per query.
func WithTopN(n int) ConfigOption {
	return func(c *Config) {
		c.TopN = n
	}
}

// WithHistorySize sets the number of matches recorded per history entry.
func WithHistorySize(n int) ConfigOption {
	return func(c *Config) {
		c.HistorySize = n
	}
}

// WithPoolSize sets the batch ranking worker count.
func WithPoolSize(n int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// WithLockTimeout sets the file lock timeout.
func WithLockTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.LockTimeout = timeout
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		IndexName:     "default",
		SyntheticSeed: 42,
		TopN:          5,
		HistorySize:   3,
		LogLevel:      "info",
		LockTimeout:   10 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithDatabasePath("./medrank.db"),
//	    WithCatalogPath("medications.csv"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return cfg
}

// Apply applies options to an existing Config.
func (c *Config) Apply(opts ...ConfigOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// LoadFile reads a YAML file over the defaults and then applies opts.
// Unknown keys are rejected. An empty file yields the defaults.
func LoadFile(path string, opts ...ConfigOption) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.Apply(opts...)
	return cfg, nil
}

// Normalize puts the configuration into canonical form.
func (c *Config) Normalize() {
	c.DatabasePath = strings.TrimSpace(c.DatabasePath)
	c.IndexName = strings.TrimSpace(c.IndexName)
	c.CatalogPath = strings.TrimSpace(c.CatalogPath)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	if c.PoolSize == 0 {
		c.PoolSize = runtime.NumCPU()
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.IndexName == "" {
		return errors.New("config: IndexName is required")
	}
	if c.TopN < 1 {
		return errors.New("config: TopN must be at least 1")
	}
	if c.HistorySize < 0 {
		return errors.New("config: HistorySize must not be negative")
	}
	if c.PoolSize < 1 {
		return errors.New("config: PoolSize must be at least 1")
	}
	if c.LockTimeout <= 0 {
		return errors.New("config: LockTimeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown LogLevel %q", c.LogLevel)
	}
	return nil
}
