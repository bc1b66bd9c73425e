package tui

import "time"

// UpsertSettingFunc persists one durable UI setting (language or theme)
// back to the config file.
type UpsertSettingFunc func(value string) error

// Option defines a functional option for model configuration.
type Option func(*Model)

// WithPollInterval sets the dashboard refresh cadence. Zero disables
// polling; refreshes then happen only on demand.
func WithPollInterval(interval time.Duration) Option {
	return func(m *Model) {
		if interval >= 0 {
			m.pollInterval = interval
		}
	}
}

// WithLanguage selects the label language.
func WithLanguage(language string) Option {
	return func(m *Model) {
		if _, ok := labels[language]; ok {
			m.language = language
		}
	}
}

// WithTheme selects the color theme.
func WithTheme(theme string) Option {
	return func(m *Model) {
		switch theme {
		case "dark", "light":
			m.theme = theme
		}
	}
}

// WithLanguageSaver wires the callback that persists a language switch.
func WithLanguageSaver(save UpsertSettingFunc) Option {
	return func(m *Model) {
		m.saveLanguage = save
	}
}

// WithThemeSaver wires the callback that persists a theme switch.
func WithThemeSaver(save UpsertSettingFunc) Option {
	return func(m *Model) {
		m.saveTheme = save
	}
}
