// Package browsertest provides a scriptable in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xkilldash9x/termcheck/internal/browser"
)

type key struct {
	by       browser.By
	selector string
}

// Page is a fake browser.Page. Elements are registered per (strategy,
// selector) pair and every lookup is counted.
type Page struct {
	mu        sync.Mutex
	url       string
	title     string
	elements  map[key][]*Element
	findErrs  map[key]error
	calls     map[key]int
	navigated []string
	closed    bool
	lost      bool

	// OnNavigate runs after every successful Navigate.
	OnNavigate func(p *Page, url string)
	// NavigateErr, when set, is returned by Navigate.
	NavigateErr error
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page at url.
func NewPage(url string) *Page {
	return &Page{
		url:      url,
		elements: make(map[key][]*Element),
		findErrs: make(map[key]error),
		calls:    make(map[key]int),
	}
}

// Add registers el as a match for (by, selector) and returns it.
func (p *Page) Add(by browser.By, selector string, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := key{by, selector}
	p.elements[k] = append(p.elements[k], el)
	return el
}

// Remove drops every match for (by, selector).
func (p *Page) Remove(by browser.By, selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, key{by, selector})
}

// FailLookup makes lookups for (by, selector) return err.
func (p *Page) FailLookup(by browser.By, selector string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.findErrs[key{by, selector}] = err
}

// Calls reports how many lookups hit (by, selector).
func (p *Page) Calls(by browser.By, selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[key{by, selector}]
}

// SetURL moves the page without a navigation.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// SetTitle sets the document title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// Lose simulates a crashed browser. Every later call returns ErrSessionLost.
func (p *Page) Lose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lost = true
}

// Navigations lists the URLs passed to Navigate.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Closed reports whether Close ran.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) check() error {
	if p.lost || p.closed {
		return browser.ErrSessionLost
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	if err := p.check(); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.NavigateErr != nil {
		p.mu.Unlock()
		return p.NavigateErr
	}
	p.url = url
	p.navigated = append(p.navigated, url)
	hook := p.OnNavigate
	p.mu.Unlock()

	if hook != nil {
		hook(p, url)
	}
	return ctx.Err()
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return "", err
	}
	return p.url, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return "", err
	}
	return p.title, nil
}

func (p *Page) FindElement(ctx context.Context, by browser.By, selector string) (browser.Element, error) {
	elems, err := p.find(by, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%s=%q: %w", by, selector, browser.ErrNoSuchElement)
	}
	return elems[0], nil
}

func (p *Page) FindElements(ctx context.Context, by browser.By, selector string) ([]browser.Element, error) {
	elems, err := p.find(by, selector)
	if err != nil {
		return nil, err
	}
	out := make([]browser.Element, len(elems))
	for i, el := range elems {
		out[i] = el
	}
	return out, nil
}

func (p *Page) find(by browser.By, selector string) ([]*Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(); err != nil {
		return nil, err
	}
	k := key{by, selector}
	p.calls[k]++
	if err := p.findErrs[k]; err != nil {
		return nil, err
	}
	return append([]*Element(nil), p.elements[k]...), nil
}

func (p *Page) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Element is a fake browser.Element.
type Element struct {
	mu     sync.Mutex
	text   string
	value  string
	attrs  map[string]string
	clicks int
	enters int

	// OnClick and OnEnter run after the interaction is counted.
	OnClick func()
	OnEnter func()
	// Err, when set, is returned by every interaction.
	Err error
	// PanicOnClick makes Click panic, mimicking a misbehaving driver.
	PanicOnClick bool
	// Hidden makes Visible report false.
	Hidden bool
	// VisibleErr, when set, is returned by Visible.
	VisibleErr error
}

var _ browser.Element = (*Element)(nil)

// NewElement returns an element with the given visible text.
func NewElement(text string) *Element {
	return &Element{text: text, attrs: make(map[string]string)}
}

// WithAttr sets an attribute and returns the element.
func (e *Element) WithAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// SetText replaces the visible text.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Value returns what has been typed into the element.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Clicks reports how often Click ran.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Enters reports how often PressEnter ran.
func (e *Element) Enters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enters
}

func (e *Element) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.value = ""
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.value += text
	return nil
}

func (e *Element) PressEnter(ctx context.Context) error {
	e.mu.Lock()
	if e.Err != nil {
		e.mu.Unlock()
		return e.Err
	}
	e.enters++
	hook := e.OnEnter
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	if e.Err != nil {
		e.mu.Unlock()
		return e.Err
	}
	if e.PanicOnClick {
		e.mu.Unlock()
		panic("fake element: click exploded")
	}
	e.clicks++
	hook := e.OnClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	return e.text, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return "", e.Err
	}
	if name == "value" {
		return e.value, nil
	}
	return e.attrs[name], nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.VisibleErr != nil {
		return false, e.VisibleErr
	}
	return !e.Hidden, nil
}

// Driver is a browser.Driver that hands out a prepared Page.
type Driver struct {
	Page      *Page
	LaunchErr error
	launches  int
	mu        sync.Mutex
}

var _ browser.Driver = (*Driver)(nil)

func (d *Driver) Name() string { return "fake" }

func (d *Driver) Launch(ctx context.Context) (browser.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launches++
	if d.LaunchErr != nil {
		return nil, d.LaunchErr
	}
	return d.Page, nil
}

// Launches reports how often Launch ran.
func (d *Driver) Launches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launches
}
