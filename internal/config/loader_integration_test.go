package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Integration tests that exercise the full LoadFrom pipeline:
// defaults < YAML < environment variables.

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CARDSMARKET_PORT", "7070")
	t.Setenv("CARDSMARKET_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadFrom_EnvInvalidValues(t *testing.T) {
	// Invalid env values are silently ignored; defaults survive.
	t.Setenv("CARDSMARKET_BREAKER_MAX_FAILURES", "notanumber")
	t.Setenv("CARDSMARKET_BREAKER_TIMEOUT", "invalid-duration")
	t.Setenv("CARDSMARKET_CACHE_COALESCE", "maybe")

	cfg, err := LoadFrom("/nonexistent/cfg.yaml")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("invalid int env should be ignored: got %d, want 5", cfg.Breaker.MaxFailures)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("invalid duration env should be ignored: got %v, want 30s", cfg.Breaker.Timeout)
	}
	if cfg.Cache.Coalesce {
		t.Error("invalid bool env should be ignored")
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte(`{{{invalid yaml`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(yamlPath)
	if err == nil {
		t.Fatal("expected error for malformed YAML, got nil")
	}
}

func TestLoadFrom_ValidationAfterOverride(t *testing.T) {
	t.Setenv("CARDSMARKET_API_BASE_URL", "cards-marketplace.local")

	_, err := LoadFrom("/nonexistent/cfg.yaml")
	if err == nil {
		t.Fatal("expected validation error for base url without scheme, got nil")
	}
}
