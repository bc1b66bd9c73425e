package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.API.BaseURL != "http://localhost:3000/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.UI.Language != "en" || cfg.UI.Theme != "dark" {
		t.Fatalf("unexpected ui defaults %+v", cfg.UI)
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval() error = %v", err)
	}
	if interval != 30*time.Second {
		t.Fatalf("unexpected poll interval %v", interval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != defaults.API.BaseURL {
		t.Fatalf("expected default base url, got %q", cfg.API.BaseURL)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://ot.example.com/api"
timeout = "5s"

[dashboard]
poll_interval = "10s"

[ui]
language = "fr"
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "https://ot.example.com/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.UI.Language != "fr" || cfg.UI.Theme != "light" {
		t.Fatalf("unexpected ui config %+v", cfg.UI)
	}
	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval() error = %v", err)
	}
	if interval != 10*time.Second {
		t.Fatalf("unexpected poll interval %v", interval)
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		t.Fatalf("RequestTimeout() error = %v", err)
	}
	if timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", timeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.API.BaseURL = "localhost/api" }},
		{"bad timeout", func(c *Config) { c.API.Timeout = "soon" }},
		{"bad poll interval", func(c *Config) { c.Dashboard.PollInterval = "whenever" }},
		{"unknown language", func(c *Config) { c.UI.Language = "eo" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "sepia" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestZeroPollIntervalDisablesPolling(t *testing.T) {
	cfg := Default()
	cfg.Dashboard.PollInterval = "0s"
	interval, err := cfg.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval() error = %v", err)
	}
	if interval != 0 {
		t.Fatalf("expected zero interval, got %v", interval)
	}
}

func TestUpsertLanguageCreatesAndMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := UpsertLanguage(path, "fr"); err != nil {
		t.Fatalf("UpsertLanguage() error = %v", err)
	}
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Language != "fr" {
		t.Fatalf("unexpected language %q", cfg.UI.Language)
	}

	if err := UpsertTheme(path, "light"); err != nil {
		t.Fatalf("UpsertTheme() error = %v", err)
	}
	cfg, err = Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Language != "fr" {
		t.Fatalf("theme upsert clobbered language, got %q", cfg.UI.Language)
	}
	if cfg.UI.Theme != "light" {
		t.Fatalf("unexpected theme %q", cfg.UI.Theme)
	}
}

func TestUpsertPreservesUnrelatedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://ot.example.com/api"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := UpsertTheme(path, "light"); err != nil {
		t.Fatalf("UpsertTheme() error = %v", err)
	}
	cfg, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "https://ot.example.com/api" {
		t.Fatalf("upsert dropped api section, got %q", cfg.API.BaseURL)
	}
}

func TestUpsertRejectsUnknownValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := UpsertLanguage(path, "xx"); err == nil {
		t.Fatal("expected error for unknown language")
	}
	if err := UpsertTheme(path, "plaid"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}
