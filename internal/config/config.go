package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the PMEX pipeline.
type Config struct {
	Storage Storage      `yaml:"storage"`
	Query   QueryConfig  `yaml:"query"`
	Fetch   FetchConfig  `yaml:"fetch"`
	Export  ExportConfig `yaml:"export"`
	Logging Logging      `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir string `yaml:"data_dir"`
}

// QueryConfig holds credentials and endpoint for the analytics query service.
type QueryConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	QueryID        string `yaml:"query_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FetchConfig controls the fetch loop.
type FetchConfig struct {
	// MaxIterations is a safety bound against unbounded looping, not a
	// domain limit.
	MaxIterations int `yaml:"max_iterations"`
}

// ExportConfig controls optional output artifacts of a merge run.
type ExportConfig struct {
	Parquet bool `yaml:"parquet"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file is present.
// The DATA_DIR contract must work without one.
func Default() *Config {
	cfg := &Config{}
	cfg.Query.TimeoutSeconds = 30
	cfg.Fetch.MaxIterations = 2
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	applyEnvOverrides(cfg)
	return cfg
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. A missing
// file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("PMEX_QUERY_URL"); v != "" {
		cfg.Query.BaseURL = v
	}

	if v := os.Getenv("PMEX_API_KEY"); v != "" {
		cfg.Query.APIKey = v
	}

	if v := os.Getenv("PMEX_QUERY_ID"); v != "" {
		cfg.Query.QueryID = v
	}

	if v := os.Getenv("PMEX_QUERY_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Query.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
