// internal/browser/chrome/driver.go
package chrome

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
)

const (
	// launchTimeout bounds the check that the browser process answers.
	launchTimeout = 30 * time.Second
	// closeTimeout bounds a graceful browser shutdown.
	closeTimeout = 10 * time.Second
)

// Driver launches Chrome through the DevTools protocol.
type Driver struct {
	cfg    *config.Config
	logger *zap.Logger
}

var _ browser.Driver = (*Driver)(nil)

// New creates a chromedp backed Driver.
func New(cfg *config.Config, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("chromedp")}
}

func (d *Driver) Name() string { return config.DriverChromedp }

// flag is a single Chrome command line switch.
type flag struct {
	name  string
	value interface{}
}

// launchFlags assembles the Chrome switches for cfg on top of chromedp's
// defaults.
func launchFlags(cfg config.BrowserConfig, goos string) []flag {
	width, height := cfg.ViewportSize()
	flags := []flag{
		{"headless", cfg.Headless},
		{"disable-gpu", true},
		{"window-size", fmt.Sprintf("%d,%d", width, height)},
		{"disable-extensions", true},
	}
	if goos == "linux" {
		flags = append(flags,
			flag{"no-sandbox", true},
			flag{"disable-dev-shm-usage", true},
			flag{"disable-setuid-sandbox", true},
		)
	}
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			flags = append(flags, flag{name, parts[1]})
		} else {
			flags = append(flags, flag{name, true})
		}
	}
	return flags
}

func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range launchFlags(cfg, runtime.GOOS) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// Launch starts the browser process and opens one tab.
func (d *Driver) Launch(ctx context.Context) (browser.Page, error) {
	d.logger.Info("Launching browser...", zap.Bool("headless", d.cfg.Browser.Headless))

	// The browser must outlive the launch call, so it hangs off a detached
	// context and is torn down by Page.Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(d.cfg.Browser)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(d.logger.Sugar().Debugf),
		chromedp.WithErrorf(d.logger.Sugar().Debugf),
	)

	// The first Run allocates the browser and binds it to the context it is
	// given, so it runs on tabCtx itself while the caller's deadline is
	// watched separately.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	var err error
	select {
	case err = <-started:
	case <-time.After(launchTimeout):
		err = fmt.Errorf("no response after %s", launchTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	d.logger.Info("Browser launched successfully and is responsive.")
	return &Page{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		logger:      d.logger,
		navTimeout:    d.cfg.Network.NavigationTimeout,
		actionTimeout: d.cfg.Network.ActionTimeout,
		settle:        d.cfg.Network.PostLoadWait,
	}, nil
}

// Page is a single Chrome tab. Closing it terminates the browser.
type Page struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
	navTimeout  time.Duration
	// actionTimeout bounds every call other than Navigate. chromedp's element
	// actions wait for visibility and would otherwise block until the
	// caller's deadline.
	actionTimeout time.Duration
	settle        time.Duration

	closeOnce sync.Once
}

var _ browser.Page = (*Page)(nil)

// run executes actions on the tab within the action timeout.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	return p.runWithin(ctx, p.actionTimeout, actions...)
}

// runWithin executes actions on the tab under the caller's deadline, cut to
// timeout when that is positive, and maps a dead tab to ErrSessionLost.
func (p *Page) runWithin(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if p.tabCtx.Err() != nil {
		return browser.ErrSessionLost
	}
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		defer cancelTimeout()
	}
	runCtx, cancel := combine(p.tabCtx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if p.tabCtx.Err() != nil || errors.Is(err, chromedp.ErrInvalidContext) {
		return fmt.Errorf("%w: %v", browser.ErrSessionLost, err)
	}
	return err
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Debug("Navigating", zap.String("url", url))
	if err := p.runWithin(ctx, p.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
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
	var loc string
	if err := p.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	var title string
	if err := p.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
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

// FindElements queries the DOM once without waiting for matches.
func (p *Page) FindElements(ctx context.Context, by browser.By, selector string) ([]browser.Element, error) {
	query, opt, err := translate(by, selector)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := p.run(ctx, chromedp.Nodes(query, &nodes, opt, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Element{page: p, id: n.NodeID})
	}
	return out, nil
}

// Close cancels the tab and the allocator, which kills the browser process.
func (p *Page) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.logger.Info("Shutting down browser process...")
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if p.tabCtx.Err() == nil {
			if err := chromedp.Cancel(p.tabCtx); err != nil {
				p.logger.Debug("Graceful tab close failed.", zap.Error(err))
			}
		}
		p.tabCancel()
		p.allocCancel()
		select {
		case <-p.allocCtx.Done():
		case <-closeCtx.Done():
			p.logger.Warn("Browser did not confirm shutdown in time.")
		}
	})
	return nil
}

// translate maps a strategy onto a chromedp query. CSS forms use
// querySelectorAll; the rest go through DOM.performSearch, which accepts XPath.
func translate(by browser.By, selector string) (string, chromedp.QueryOption, error) {
	if css, err := browser.ToCSS(by, selector); err == nil {
		return css, chromedp.ByQueryAll, nil
	}
	expr, err := browser.ToXPath(by, selector)
	if err != nil {
		return "", nil, err
	}
	return expr, chromedp.BySearch, nil
}

// combine derives a context from primary, which carries the chromedp target,
// that also ends when secondary does.
func combine(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(primary)
	if deadline, ok := secondary.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		ctx, cancelDeadline = context.WithDeadline(ctx, deadline)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	}
	stop := context.AfterFunc(secondary, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
