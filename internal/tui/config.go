package tui

import (
	"time"

	"github.com/Veraticus/spice-ledger/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme themes.Theme
	// RefreshInterval is how often rows are re-derived from the cache so push
	// updates become visible.
	RefreshInterval time.Duration
	// AlertTimeout is how long a failure alert stays on screen.
	AlertTimeout time.Duration
	// RequestTimeout bounds each remote call made from the browser.
	RequestTimeout time.Duration
	Width          int
	Height         int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:           themes.Default,
		Width:           100,
		Height:          30,
		RefreshInterval: 500 * time.Millisecond,
		AlertTimeout:    5 * time.Second,
		RequestTimeout:  30 * time.Second,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAlertTimeout sets how long alerts stay visible.
func WithAlertTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.AlertTimeout = d
	}
}

// WithRequestTimeout bounds remote calls.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}
