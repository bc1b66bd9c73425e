package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	API       APIConfig       `toml:"api"`
	Dashboard DashboardConfig `toml:"dashboard"`
	UI        UIConfig        `toml:"ui"`
	Logging   LoggingConfig   `toml:"logging"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

type DashboardConfig struct {
	PollInterval string `toml:"poll_interval"`
}

type UIConfig struct {
	Language string `toml:"language"` // en | fr
	Theme    string `toml:"theme"`    // dark | light
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

var knownLanguages = []string{"en", "fr"}

var knownThemes = []string{"dark", "light"}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: "15s",
		},
		Dashboard: DashboardConfig{
			PollInterval: "30s",
		},
		UI: UIConfig{
			Language: "en",
			Theme:    "dark",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     "",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return errors.New("api.base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}

	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("invalid api.timeout: %q", c.API.Timeout)
	}
	if _, err := c.PollInterval(); err != nil {
		return fmt.Errorf("invalid dashboard.poll_interval: %q", c.Dashboard.PollInterval)
	}

	lang := strings.TrimSpace(strings.ToLower(c.UI.Language))
	if lang != "" && !slices.Contains(knownLanguages, lang) {
		return fmt.Errorf("invalid ui.language: %q", c.UI.Language)
	}
	theme := strings.TrimSpace(strings.ToLower(c.UI.Theme))
	if theme != "" && !slices.Contains(knownThemes, theme) {
		return fmt.Errorf("invalid ui.theme: %q", c.UI.Theme)
	}

	return nil
}

// RequestTimeout returns the parsed API request timeout.
func (c Config) RequestTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.API.Timeout)
	if raw == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("parse timeout: %q", raw)
	}
	return d, nil
}

// PollInterval returns the parsed dashboard poll interval. Zero disables polling.
func (c Config) PollInterval() (time.Duration, error) {
	raw := strings.TrimSpace(c.Dashboard.PollInterval)
	if raw == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("parse poll interval: %q", raw)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// UpsertLanguage rewrites only the ui.language key in the config file.
func UpsertLanguage(path, language string) error {
	language = strings.TrimSpace(strings.ToLower(language))
	if !slices.Contains(knownLanguages, language) {
		return fmt.Errorf("unknown language: %q", language)
	}
	return upsertUIKey(path, "language", language)
}

// UpsertTheme rewrites only the ui.theme key in the config file.
func UpsertTheme(path, theme string) error {
	theme = strings.TrimSpace(strings.ToLower(theme))
	if !slices.Contains(knownThemes, theme) {
		return fmt.Errorf("unknown theme: %q", theme)
	}
	return upsertUIKey(path, "theme", theme)
}

// upsertUIKey merges one [ui] key into the on-disk TOML document, preserving
// unrelated keys the user may have set by hand.
func upsertUIKey(path, key, value string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is required")
	}

	doc := map[string]any{}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(content) > 0 {
			if err := toml.Unmarshal(content, &doc); err != nil {
				return fmt.Errorf("decode toml: %w", err)
			}
		}
	case errors.Is(err, os.ErrNotExist):
		// First write creates the file.
	default:
		return fmt.Errorf("read config: %w", err)
	}

	ui, ok := doc["ui"].(map[string]any)
	if !ok {
		ui = map[string]any{}
	}
	ui[key] = value
	doc["ui"] = ui

	encoded, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
