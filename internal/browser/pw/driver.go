// internal/browser/pw/driver.go
package pw

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
)

const playwrightInstallTimeout = 5 * time.Minute

// Driver launches Chromium through Playwright.
type Driver struct {
	cfg    *config.Config
	logger *zap.Logger
	// Install downloads the browsers before launch when true.
	Install bool
}

var _ browser.Driver = (*Driver)(nil)

// New creates a Playwright backed Driver.
func New(cfg *config.Config, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("playwright")}
}

func (d *Driver) Name() string { return config.DriverPlaywright }

// launchOptions mirrors the chromedp switches.
func launchOptions(cfg config.BrowserConfig) playwright.BrowserTypeLaunchOptions {
	args := []string{
		"--disable-gpu",
		"--no-sandbox",
		"--disable-dev-shm-usage",
	}
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     append(args, cfg.Args...),
		Timeout:  playwright.Float(60000),
	}
}

func contextOptions(cfg config.BrowserConfig) playwright.BrowserNewContextOptions {
	width, height := cfg.ViewportSize()
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: width, Height: height},
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(cfg.UserAgent)
	}
	return opts
}

func (d *Driver) ensureInstallation(ctx context.Context) error {
	d.logger.Info("Verifying Playwright browser installation...")
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			done <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

// Launch starts the Playwright driver, Chromium and a single page.
func (d *Driver) Launch(ctx context.Context) (browser.Page, error) {
	if d.Install {
		if err := d.ensureInstallation(ctx); err != nil {
			return nil, err
		}
	}

	runner, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}
	b, err := runner.Chromium.Launch(launchOptions(d.cfg.Browser))
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}
	bctx, err := b.NewContext(contextOptions(d.cfg.Browser))
	if err != nil {
		_ = b.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = b.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	// Bounds single locator actions. Lookups never wait because they go
	// through Count.
	page.SetDefaultTimeout(float64(d.cfg.Network.ActionTimeout.Milliseconds()))

	d.logger.Info("Browser launched.", zap.String("browser_version", b.Version()))
	return &Page{
		runner:     runner,
		browser:    b,
		page:       page,
		logger:     d.logger,
		navTimeout: d.cfg.Network.NavigationTimeout,
		settle:     d.cfg.Network.PostLoadWait,
	}, nil
}

// Page wraps a Playwright page. Playwright calls are not context aware, so
// the context is checked before each call and timeouts come from Playwright.
type Page struct {
	runner     *playwright.Playwright
	browser    playwright.Browser
	page       playwright.Page
	logger     *zap.Logger
	navTimeout time.Duration
	settle     time.Duration

	mu     sync.Mutex
	closed bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) check(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || !p.browser.IsConnected() || p.page.IsClosed() {
		return browser.ErrSessionLost
	}
	return ctx.Err()
}

// wrap maps Playwright's closed target error onto ErrSessionLost.
func (p *Page) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTargetClosed) || !p.browser.IsConnected() {
		return fmt.Errorf("%w: %v", browser.ErrSessionLost, err)
	}
	return err
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}
	if p.navTimeout > 0 {
		opts.Timeout = playwright.Float(float64(p.navTimeout.Milliseconds()))
	}
	p.logger.Debug("Navigating", zap.String("url", url))
	if _, err := p.page.Goto(url, opts); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, p.wrap(err))
	}
	if p.settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.settle):
		}
	}
	return nil
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.page.URL(), nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	title, err := p.page.Title()
	return title, p.wrap(err)
}

func (p *Page) FindElement(ctx context.Context, by browser.By, selector string) (browser.Element, error) {
	elems, err := p.FindElements(ctx, by, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%s=%q: %w", by, selector, browser.ErrNoSuchElement)
	}
	return elems[0], nil
}

// FindElements counts the matches of the translated selector and returns a
// locator per match.
func (p *Page) FindElements(ctx context.Context, by browser.By, selector string) ([]browser.Element, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	sel, err := translate(by, selector)
	if err != nil {
		return nil, err
	}
	loc := p.page.Locator(sel)
	n, err := loc.Count()
	if err != nil {
		return nil, p.wrap(err)
	}
	out := make([]browser.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{page: p, loc: loc.Nth(i)})
	}
	return out, nil
}

// Close shuts down the browser and the Playwright driver.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := p.runner.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	p.logger.Info("Browser shut down.")
	return errors.Join(errs...)
}

// translate maps a strategy onto a Playwright selector engine.
func translate(by browser.By, selector string) (string, error) {
	if css, err := browser.ToCSS(by, selector); err == nil {
		return "css=" + css, nil
	}
	expr, err := browser.ToXPath(by, selector)
	if err != nil {
		return "", err
	}
	return "xpath=" + expr, nil
}

// Element is the nth match of a locator.
type Element struct {
	page *Page
	loc  playwright.Locator
}

var _ browser.Element = (*Element)(nil)

func (e *Element) Clear(ctx context.Context) error {
	if err := e.page.check(ctx); err != nil {
		return err
	}
	return e.page.wrap(e.loc.Clear())
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := e.page.check(ctx); err != nil {
		return err
	}
	return e.page.wrap(e.loc.PressSequentially(text))
}

func (e *Element) PressEnter(ctx context.Context) error {
	if err := e.page.check(ctx); err != nil {
		return err
	}
	return e.page.wrap(e.loc.Press("Enter"))
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.page.check(ctx); err != nil {
		return err
	}
	return e.page.wrap(e.loc.Click())
}

// Visible checks the current state without waiting for it to change.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := e.page.check(ctx); err != nil {
		return false, err
	}
	visible, err := e.loc.IsVisible()
	return visible, e.page.wrap(err)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.page.check(ctx); err != nil {
		return "", err
	}
	text, err := e.loc.InnerText()
	if err != nil {
		return "", e.page.wrap(err)
	}
	return text, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.page.check(ctx); err != nil {
		return "", err
	}
	if name == "value" {
		v, err := e.loc.InputValue()
		return v, e.page.wrap(err)
	}
	v, err := e.loc.GetAttribute(name)
	return v, e.page.wrap(err)
}
