// Package browser drives the page under test with playwright and reads the
// clicks the user makes in it.
package browser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/errors"
)

// Options configures Launch.
type Options struct {
	Headless bool

	// LaunchTimeout bounds the initial navigation. 0 means 30s.
	LaunchTimeout time.Duration

	Log logrus.FieldLogger
}

// Controller owns one browser with one active page.
type Controller struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	log     logrus.FieldLogger

	mu   sync.Mutex
	page playwright.Page
}

// Launch starts chromium, installs the click hook and opens url.
func Launch(ctx context.Context, url string, opts Options) (*Controller, error) {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	timeout := opts.LaunchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	c := &Controller{pw: pw, log: log}

	c.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-extensions",
			"--disable-sync",
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	c.bctx, err = c.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 720},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	if err := c.bctx.AddInitScript(playwright.Script{Content: playwright.String(captureScript)}); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to install capture script: %w", err)
	}

	page, err := c.bctx.NewPage()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	c.page = page

	// Follow popups and new tabs: the newest page is the one being recorded.
	c.bctx.OnPage(func(p playwright.Page) {
		c.mu.Lock()
		c.page = p
		c.mu.Unlock()
		c.log.WithField("url", p.URL()).Debug("switched to new page")
		p.OnClose(func(closed playwright.Page) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.page == closed {
				c.page = page
			}
		})
	})

	if err := ctx.Err(); err != nil {
		c.Close()
		return nil, errors.NewCancelled("launch")
	}
	_, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	log.WithField("url", url).Info("browser ready")
	return c, nil
}

func (c *Controller) current() playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// evaluate runs js on the active page, giving up when ctx ends. The
// evaluation itself keeps running in the browser.
func (c *Controller) evaluate(ctx context.Context, js string) (any, error) {
	page := c.current()
	if page == nil || page.IsClosed() {
		return nil, fmt.Errorf("no open page")
	}
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := page.Evaluate(js)
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

// CaptureClick returns the last clicked element and clears it, or nil when
// nothing was clicked. Failures are CAPTURE_UNAVAILABLE.
func (c *Controller) CaptureClick(ctx context.Context) (*element.RawElement, error) {
	v, err := c.evaluate(ctx, fetchScript)
	if err != nil {
		return nil, errors.NewCaptureUnavailable(err)
	}
	e, err := elementFromResult(v)
	if err != nil {
		return nil, errors.NewCaptureUnavailable(err)
	}
	return e, nil
}

// IsReady reports whether the page is loaded and the capture hook is present.
func (c *Controller) IsReady(ctx context.Context) bool {
	v, err := c.evaluate(ctx, readyScript)
	if err != nil {
		return false
	}
	ready, _ := v.(bool)
	return ready
}

// WaitReady polls IsReady every interval until it holds or ctx ends.
func (c *Controller) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if c.IsReady(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.NewCaptureUnavailable(fmt.Errorf("page not ready: %w", ctx.Err()))
		case <-ticker.C:
		}
	}
}

// CurrentURL returns the active page's URL.
func (c *Controller) CurrentURL(ctx context.Context) (string, error) {
	page := c.current()
	if page == nil || page.IsClosed() {
		return "", errors.NewCaptureUnavailable(fmt.Errorf("no open page"))
	}
	return page.URL(), nil
}

// Close shuts down the context, the browser and playwright, in that order.
// Errors from already-closed targets are ignored.
func (c *Controller) Close() error {
	var closeErr error
	record := func(what string, err error) {
		if err == nil || isClosedErr(err) {
			return
		}
		if closeErr != nil {
			closeErr = fmt.Errorf("%v; failed to close %s: %w", closeErr, what, err)
		} else {
			closeErr = fmt.Errorf("failed to close %s: %w", what, err)
		}
	}

	if c.bctx != nil {
		record("context", c.bctx.Close())
		c.bctx = nil
	}
	if c.browser != nil {
		record("browser", c.browser.Close())
		c.browser = nil
	}
	if c.pw != nil {
		record("playwright", c.pw.Stop())
		c.pw = nil
	}
	return closeErr
}

func isClosedErr(err error) bool {
	return strings.Contains(err.Error(), "closed")
}

// elementFromResult converts the fetch script's result.
func elementFromResult(v any) (*element.RawElement, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected capture result %T", v)
	}
	e := element.NewRawElement(
		getString(m, "id"),
		getString(m, "text"),
		getString(m, "tag"),
		getString(m, "class"),
		getString(m, "type"),
	)
	return &e, nil
}

// getString extracts a string value from m.
func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
