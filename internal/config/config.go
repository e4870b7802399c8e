// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/querydemo/internal/query"
)

// Config holds all querydemo configuration.
type Config struct {
	API       API       `yaml:"api"`
	Query     Query     `yaml:"query"`
	Telemetry Telemetry `yaml:"telemetry"`
	Log       Log       `yaml:"log"`
}

// API holds GraphQL endpoint settings.
type API struct {
	Endpoint string        `yaml:"endpoint" env:"QUERYDEMO_ENDPOINT"`
	Timeout  time.Duration `yaml:"timeout"  env:"QUERYDEMO_TIMEOUT"`
}

// Query holds query cache settings.
type Query struct {
	StaleTime    time.Duration `yaml:"stale_time"    env:"QUERYDEMO_STALE_TIME"`
	GCTime       time.Duration `yaml:"gc_time"       env:"QUERYDEMO_GC_TIME"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Retry        RetryConfig   `yaml:"retry"`
}

// RetryConfig holds retry strategy settings for failed fetches.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"   env:"QUERYDEMO_RETRY_ATTEMPTS"`
	Delay         time.Duration `yaml:"delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// Telemetry holds tracing export settings. An empty endpoint disables export.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint"     env:"QUERYDEMO_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name"`
}

// Log holds diagnostic log settings.
type Log struct {
	File string `yaml:"file" env:"QUERYDEMO_LOG_FILE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			Endpoint: "https://graphqlzero.almansi.me/api",
			Timeout:  10 * time.Second,
		},
		Query: Query{
			StaleTime:    0,
			GCTime:       5 * time.Minute,
			FetchTimeout: 15 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:   3,
				Delay:         500 * time.Millisecond,
				BackoffFactor: 2.0,
			},
		},
		Telemetry: Telemetry{
			ServiceName: "querydemo",
		},
		Log: Log{
			File: "querydemo.log",
		},
	}
}

// DefaultPaths returns the config files read by LoadLayered, lowest
// priority first.
func DefaultPaths() []string {
	return []string{
		os.ExpandEnv("$HOME/.config/querydemo/config.yaml"),
		".querydemo.yaml",
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return errors.New("config: api.endpoint cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.Query.StaleTime < 0 {
		return fmt.Errorf("config: query.stale_time must be non-negative, got %v", c.Query.StaleTime)
	}
	if c.Query.GCTime < 0 {
		return fmt.Errorf("config: query.gc_time must be non-negative, got %v", c.Query.GCTime)
	}
	if c.Query.FetchTimeout < 0 {
		return fmt.Errorf("config: query.fetch_timeout must be non-negative, got %v", c.Query.FetchTimeout)
	}
	if c.Query.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: query.retry.max_attempts must be at least 1, got %d", c.Query.Retry.MaxAttempts)
	}
	if c.Query.Retry.Delay < 0 {
		return fmt.Errorf("config: query.retry.delay must be non-negative, got %v", c.Query.Retry.Delay)
	}
	// A factor in (0, 1.0) would shrink the delay on retry; reject.
	if c.Query.Retry.BackoffFactor < 0 || (c.Query.Retry.BackoffFactor > 0 && c.Query.Retry.BackoffFactor < 1.0) {
		return fmt.Errorf("config: query.retry.backoff_factor must be 0 (disabled) or >= 1.0, got %v", c.Query.Retry.BackoffFactor)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config. Unset
// variables leave the current values alone. Supported variables:
// QUERYDEMO_ENDPOINT, QUERYDEMO_TIMEOUT, QUERYDEMO_STALE_TIME,
// QUERYDEMO_GC_TIME, QUERYDEMO_RETRY_ATTEMPTS, QUERYDEMO_OTEL_ENDPOINT,
// QUERYDEMO_LOG_FILE.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// QueryConfig converts the query section to the cache's configuration.
func (c *Config) QueryConfig() query.Config {
	return query.Config{
		StaleTime:    c.Query.StaleTime,
		GCTime:       c.Query.GCTime,
		FetchTimeout: c.Query.FetchTimeout,
		Retry: query.RetryPolicy{
			MaxAttempts:   c.Query.Retry.MaxAttempts,
			Delay:         c.Query.Retry.Delay,
			BackoffFactor: c.Query.Retry.BackoffFactor,
		},
	}
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API       *rawAPI       `yaml:"api"`
	Query     *rawQuery     `yaml:"query"`
	Telemetry *rawTelemetry `yaml:"telemetry"`
	Log       *rawLog       `yaml:"log"`
}

type rawAPI struct {
	Endpoint *string        `yaml:"endpoint"`
	Timeout  *time.Duration `yaml:"timeout"`
}

type rawQuery struct {
	StaleTime    *time.Duration  `yaml:"stale_time"`
	GCTime       *time.Duration  `yaml:"gc_time"`
	FetchTimeout *time.Duration  `yaml:"fetch_timeout"`
	Retry        *rawRetryConfig `yaml:"retry"`
}

type rawRetryConfig struct {
	MaxAttempts   *int           `yaml:"max_attempts"`
	Delay         *time.Duration `yaml:"delay"`
	BackoffFactor *float64       `yaml:"backoff_factor"`
}

type rawTelemetry struct {
	Endpoint    *string `yaml:"endpoint"`
	ServiceName *string `yaml:"service_name"`
}

type rawLog struct {
	File *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if l := layer.API; l != nil {
		set(&c.API.Endpoint, l.Endpoint)
		set(&c.API.Timeout, l.Timeout)
	}
	if l := layer.Query; l != nil {
		set(&c.Query.StaleTime, l.StaleTime)
		set(&c.Query.GCTime, l.GCTime)
		set(&c.Query.FetchTimeout, l.FetchTimeout)
		if r := l.Retry; r != nil {
			set(&c.Query.Retry.MaxAttempts, r.MaxAttempts)
			set(&c.Query.Retry.Delay, r.Delay)
			set(&c.Query.Retry.BackoffFactor, r.BackoffFactor)
		}
	}
	if l := layer.Telemetry; l != nil {
		set(&c.Telemetry.Endpoint, l.Endpoint)
		set(&c.Telemetry.ServiceName, l.ServiceName)
	}
	if l := layer.Log; l != nil {
		set(&c.Log.File, l.File)
	}
}

// set copies *v into dst when v is non-nil.
func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
