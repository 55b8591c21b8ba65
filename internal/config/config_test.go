package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATA_DIR", "PMEX_QUERY_URL", "PMEX_API_KEY", "PMEX_QUERY_ID", "PMEX_QUERY_TIMEOUT", "LOG_LEVEL"} {
		os.Unsetenv(k)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
storage:
  data_dir: "/srv/pmex/data"
query:
  base_url: "https://analytics.example.com"
  api_key: "file-key"
  query_id: "4321"
  timeout_seconds: 15
fetch:
  max_iterations: 3
export:
  parquet: true
logging:
  level: "debug"
  format: "json"
`)

	tmpFile, err := os.CreateTemp("", "pmex-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/srv/pmex/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/srv/pmex/data")
	}
	if cfg.Query.BaseURL != "https://analytics.example.com" {
		t.Errorf("Query.BaseURL = %q, want %q", cfg.Query.BaseURL, "https://analytics.example.com")
	}
	if cfg.Query.APIKey != "file-key" {
		t.Errorf("Query.APIKey = %q, want %q", cfg.Query.APIKey, "file-key")
	}
	if cfg.Query.TimeoutSeconds != 15 {
		t.Errorf("Query.TimeoutSeconds = %d, want 15", cfg.Query.TimeoutSeconds)
	}
	if cfg.Fetch.MaxIterations != 3 {
		t.Errorf("Fetch.MaxIterations = %d, want 3", cfg.Fetch.MaxIterations)
	}
	if !cfg.Export.Parquet {
		t.Error("Export.Parquet = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error for missing file: %v", err)
	}

	if cfg.Fetch.MaxIterations != 2 {
		t.Errorf("Fetch.MaxIterations = %d, want 2", cfg.Fetch.MaxIterations)
	}
	if cfg.Query.TimeoutSeconds != 30 {
		t.Errorf("Query.TimeoutSeconds = %d, want 30", cfg.Query.TimeoutSeconds)
	}
	if cfg.Export.Parquet {
		t.Error("Export.Parquet = true, want false")
	}
	if cfg.Storage.DataDir != "" {
		t.Errorf("Storage.DataDir = %q, want empty", cfg.Storage.DataDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	yamlContent := []byte(`
storage:
  data_dir: "/original/data"
query:
  api_key: "yaml-key"
  base_url: "https://yaml.example.com"
`)

	tmpFile, err := os.CreateTemp("", "pmex-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("DATA_DIR", "/env/data")
	os.Setenv("PMEX_API_KEY", "env-key")
	defer os.Unsetenv("DATA_DIR")
	defer os.Unsetenv("PMEX_API_KEY")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
	if cfg.Query.APIKey != "env-key" {
		t.Errorf("Query.APIKey = %q, want %q (env override)", cfg.Query.APIKey, "env-key")
	}
	// base_url should remain from YAML since no env override was set.
	if cfg.Query.BaseURL != "https://yaml.example.com" {
		t.Errorf("Query.BaseURL = %q, want %q (from YAML)", cfg.Query.BaseURL, "https://yaml.example.com")
	}
}
