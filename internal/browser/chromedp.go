// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// Chrome is a chromedp-backed renderer bound to one exclusive browser
// session. It is not safe for concurrent Render calls; the engine processes
// one URL at a time.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      *Config
	log         zerolog.Logger
}

// NewChrome starts a Chrome session. The caller owns the session and must
// Close it, even after render failures.
func NewChrome(config *Config, log zerolog.Logger) (*Chrome, error) {
	if config == nil {
		config = DefaultConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	c := &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
		log:         log,
	}

	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight))); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	if config.ScreenshotDir != "" {
		if err := os.MkdirAll(config.ScreenshotDir, 0755); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}

	return c, nil
}

// Render navigates to a URL, waits for the page to settle and returns the
// rendered HTML.
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	navCtx := c.ctx
	var cancel context.CancelFunc
	if c.config.Timeout > 0 {
		navCtx, cancel = context.WithTimeout(c.ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	if len(c.config.WaitSelectors) > 0 {
		c.waitForSelectors()
	} else if c.config.SleepAfterLoad > 0 {
		if err := chromedp.Run(navCtx, chromedp.Sleep(c.config.SleepAfterLoad)); err != nil {
			return "", fmt.Errorf("settle wait failed: %w", err)
		}
	}

	if c.config.ScreenshotDir != "" {
		c.saveScreenshot()
	}

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to extract HTML: %w", err)
	}

	c.log.Debug().Str("url", url).Dur("load_time", time.Since(start)).Msg("page rendered")
	return html, nil
}

// waitForSelectors waits for each configured selector in turn. A selector
// that never appears is skipped, matching the tolerant wait behavior of the
// settle delay.
func (c *Chrome) waitForSelectors() {
	for _, selector := range c.config.WaitSelectors {
		waitCtx, cancel := context.WithTimeout(c.ctx, c.config.WaitTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
		cancel()
		if err != nil {
			c.log.Debug().Str("selector", selector).Err(err).Msg("wait selector did not appear")
		}
	}
}

func (c *Chrome) saveScreenshot() {
	var buf []byte
	if err := chromedp.Run(c.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		c.log.Warn().Err(err).Msg("screenshot failed")
		return
	}

	path := filepath.Join(c.config.ScreenshotDir, fmt.Sprintf("page_%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to save screenshot")
	}
}

// Close releases the browser session. Safe to call more than once.
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}
	return nil
}
