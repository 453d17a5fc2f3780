// internal/browser/types.go

// Package browser implements the rendering collaborator: it turns a URL
// into page HTML through a Chrome session driven with chromedp. The session
// is an explicitly owned resource — acquired by NewChrome, released by
// Close — never a process-wide singleton, so the engine can be tested with
// a substitute renderer.
package browser

import "time"

// Config defines the Chrome session settings.
type Config struct {
	Headless       bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int

	// Timeout bounds one navigation plus snapshot.
	Timeout time.Duration

	// WaitSelectors are CSS selectors to wait for after navigation. Each
	// wait is bounded by WaitTimeout and an expired wait is not an error.
	WaitSelectors []string
	WaitTimeout   time.Duration

	// SleepAfterLoad is the settle delay used when no WaitSelectors are
	// configured.
	SleepAfterLoad time.Duration

	// ScreenshotDir, when set, receives a full-page screenshot per
	// rendered URL.
	ScreenshotDir string
}

// DefaultConfig returns the default Chrome session settings.
func DefaultConfig() *Config {
	return &Config{
		Headless:       true,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Timeout:        30 * time.Second,
		WaitTimeout:    15 * time.Second,
		SleepAfterLoad: 3 * time.Second,
	}
}
