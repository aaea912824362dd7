package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FIRDESK_CONFIG", "PORT", "STORE_BACKEND", "LLM_PROVIDER", "SESSION_TTL",
		"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "STRICT_PATHS", "RATE_LIMIT_RPS", "CLASSIFIER_TOP_K",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("expected port 5000, got %s", cfg.Port)
	}
	if cfg.StoreBackend != "sqlite" || cfg.LLMProvider != "ollama" {
		t.Errorf("unexpected backends %s/%s", cfg.StoreBackend, cfg.LLMProvider)
	}
	if cfg.SessionTTL.Duration != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %v", cfg.SessionTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "firdesk.toml")
	err := os.WriteFile(path, []byte(`
port = "7000"
store_backend = "pathstore"
session_ttl = "30m"
strict_paths = true
classifier_top_k = 5
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("FIRDESK_CONFIG", path)
	t.Setenv("PORT", "9000")
	t.Setenv("CLASSIFIER_TOP_K", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected env to win, got port %s", cfg.Port)
	}
	if cfg.StoreBackend != "pathstore" {
		t.Errorf("expected pathstore from file, got %s", cfg.StoreBackend)
	}
	if cfg.SessionTTL.Duration != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.SessionTTL)
	}
	if !cfg.StrictPaths {
		t.Error("expected strict paths from file")
	}
	if cfg.ClassifierTopK != 5 {
		t.Errorf("expected unparseable env to keep file value 5, got %d", cfg.ClassifierTopK)
	}
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("port = [unterminated"), 0o644)
	t.Setenv("FIRDESK_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}

	t.Setenv("FIRDESK_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected read error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"store", func(c *Config) { c.StoreBackend = "mongo" }, "STORE_BACKEND"},
		{"provider", func(c *Config) { c.LLMProvider = "openai" }, "LLM_PROVIDER"},
		{"claude key", func(c *Config) { c.LLMProvider = "claude" }, "ANTHROPIC_API_KEY"},
		{"gemini key", func(c *Config) { c.LLMProvider = "gemini" }, "GEMINI_API_KEY"},
		{"rate", func(c *Config) { c.RateLimitRPS = -1 }, "RATE_LIMIT_RPS"},
		{"catalog", func(c *Config) { c.FieldCatalog = "" }, "FIELD_CATALOG"},
	}
	for _, tc := range cases {
		cfg := defaults()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error mentioning %s, got %v", tc.name, tc.want, err)
		}
	}
}
