package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "[api]\nbase_url = \"https://api.example.com/\"\n")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %s, got %s", path, resolved)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.RequestTimeout != 30 {
		t.Fatalf("expected default request timeout, got %d", cfg.API.RequestTimeout)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
	if cfg.Connectivity.ProbeURL == "" {
		t.Fatal("expected default probe URL")
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected absolute data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, "[paths]\ndata_dir = \"/tmp/fieldsync\"\n")

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing api.base_url")
	}
	if !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, "[api]\nbase_url = \"not a url\"\n")

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid api.base_url")
	}
}

func TestLoadTokenEnvFallback(t *testing.T) {
	t.Setenv("FIELDSYNC_API_TOKEN", "env-token")
	path := writeConfig(t, "[api]\nbase_url = \"https://api.example.com\"\n")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Fatalf("expected env token fallback, got %q", cfg.API.Token)
	}
}

func TestLoadRejectsTokenAndTokenPath(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"[api]",
		"base_url = \"https://api.example.com\"",
		"token = \"abc\"",
		"token_path = \"/tmp/token\"",
	}, "\n"))

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when both token and token_path are set")
	}
}

func TestLoadNormalizesLogging(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"[api]",
		"base_url = \"https://api.example.com\"",
		"[logging]",
		"format = \"YAML\"",
		"level = \"TRACE\"",
	}, "\n"))

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected unsupported format to fall back to console, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "trace" {
		t.Fatalf("expected lowered level, got %q", cfg.Logging.Level)
	}
}
