// internal/browser/static/page.go
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
)

const maxRedirects = 10

// Driver is a browser.Driver that renders pages without a JavaScript engine.
// It is suitable for server rendered forms and for tests.
type Driver struct {
	cfg    *config.Config
	logger *zap.Logger
}

var _ browser.Driver = (*Driver)(nil)

// New creates a static Driver.
func New(cfg *config.Config, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("static")}
}

func (d *Driver) Name() string { return config.DriverStatic }

// Launch creates a fresh page with its own cookie jar.
func (d *Driver) Launch(ctx context.Context) (browser.Page, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, CheckRedirect: checkRedirect}
	d.logger.Info("Static page launched.")
	return &Page{
		client:     client,
		logger:     d.logger,
		userAgent:  d.cfg.Browser.UserAgent,
		navTimeout: d.cfg.Network.NavigationTimeout,
	}, nil
}

// Page is the pure Go page. The parsed document is stateful across
// interactions until the next navigation.
type Page struct {
	client     *http.Client
	logger     *zap.Logger
	userAgent  string
	navTimeout time.Duration

	mu         sync.RWMutex
	currentURL *url.URL
	doc        *html.Node
	closed     bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) alive() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return browser.ErrSessionLost
	}
	return nil
}

// Navigate loads targetURL, which may be relative to the current page.
func (p *Page) Navigate(ctx context.Context, targetURL string) error {
	if err := p.alive(); err != nil {
		return err
	}
	resolved, err := p.resolveURL(targetURL)
	if err != nil {
		return fmt.Errorf("failed to resolve URL '%s': %w", targetURL, err)
	}

	if p.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.navTimeout)
		defer cancel()
	}

	p.logger.Debug("Navigating", zap.String("url", resolved.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request for '%s': %w", resolved, err)
	}
	p.prepareRequestHeaders(req)
	return p.load(req)
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if err := p.alive(); err != nil {
		return "", err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.currentURL == nil {
		return "about:blank", nil
	}
	return p.currentURL.String(), nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := p.alive(); err != nil {
		return "", err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.doc == nil {
		return "", nil
	}
	if n := htmlquery.FindOne(p.doc, "//title"); n != nil {
		return strings.TrimSpace(htmlquery.InnerText(n)), nil
	}
	return "", nil
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

// FindElements evaluates CSS style strategies with goquery and everything
// else as XPath with htmlquery.
func (p *Page) FindElements(ctx context.Context, by browser.By, selector string) ([]browser.Element, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	doc := p.doc
	p.mu.RUnlock()
	if doc == nil {
		return nil, nil
	}

	var nodes []*html.Node
	if css, err := browser.ToCSS(by, selector); err == nil {
		nodes = goquery.NewDocumentFromNode(doc).Find(css).Nodes
	} else {
		expr, err := browser.ToXPath(by, selector)
		if err != nil {
			return nil, err
		}
		nodes, err = htmlquery.QueryAll(doc, expr)
		if err != nil {
			return nil, fmt.Errorf("invalid XPath selector '%s': %w", expr, err)
		}
	}

	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Element{page: p, node: n})
	}
	return out, nil
}

// Close releases idle connections. Every later call reports ErrSessionLost.
func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.client.CloseIdleConnections()
	p.logger.Info("Static page closed.")
	return nil
}

// load sends req and replaces the document with the response. The client
// follows redirects itself, so the page URL is taken from the last hop.
func (p *Page) load(req *http.Request) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	if resp.StatusCode >= 400 {
		p.logger.Warn("Request resulted in error status code", zap.Int("status", resp.StatusCode), zap.String("url", final.String()))
	}

	var doc *html.Node
	if mediaType := strings.ToLower(resp.Header.Get("Content-Type")); mediaType == "" || strings.Contains(mediaType, "text/html") {
		if doc, err = htmlquery.Parse(resp.Body); err != nil {
			doc = nil
			err = fmt.Errorf("failed to parse HTML response from '%s': %w", final, err)
		}
	} else {
		p.logger.Debug("Response is not HTML, skipping DOM parsing.", zap.String("content_type", mediaType))
	}

	p.mu.Lock()
	p.currentURL = final
	p.doc = doc
	p.mu.Unlock()
	return err
}

// checkRedirect caps the hop count and points Referer at the previous hop.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("maximum number of redirects (%d) exceeded", maxRedirects)
	}
	req.Header.Set("Referer", via[len(via)-1].URL.String())
	return nil
}

func (p *Page) resolveURL(target string) (*url.URL, error) {
	p.mu.RLock()
	current := p.currentURL
	p.mu.RUnlock()

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if parsed.IsAbs() {
		return parsed, nil
	}
	if current == nil {
		return nil, fmt.Errorf("cannot resolve relative URL '%s' without a base URL", target)
	}
	return current.ResolveReference(parsed), nil
}

func (p *Page) prepareRequestHeaders(req *http.Request) {
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en")

	p.mu.RLock()
	current := p.currentURL
	p.mu.RUnlock()
	if current != nil && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", current.String())
	}
}
