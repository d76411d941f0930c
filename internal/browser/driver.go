// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoSuchElement is returned by a single lookup that matched nothing.
	ErrNoSuchElement = errors.New("no such element")
	// ErrSessionLost means the browser behind a page is gone and no further
	// interaction is possible.
	ErrSessionLost = errors.New("browser session lost")
	// ErrUnsupportedStrategy is returned when a driver cannot express a
	// lookup strategy.
	ErrUnsupportedStrategy = errors.New("unsupported lookup strategy")
)

// Driver launches a browser and hands back its single page.
type Driver interface {
	// Name identifies the driver in logs and reports.
	Name() string
	Launch(ctx context.Context) (Page, error)
}

// Page is the live document of a launched browser. Closing it tears the whole
// browser down.
type Page interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// FindElement performs one non-blocking lookup and returns
	// ErrNoSuchElement when nothing matches.
	FindElement(ctx context.Context, by By, selector string) (Element, error)
	// FindElements returns every match, possibly none.
	FindElements(ctx context.Context, by By, selector string) ([]Element, error)

	Close(ctx context.Context) error
}

// Element is a handle to one node of the current document.
type Element interface {
	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	// PressEnter sends the platform confirm key to the element.
	PressEnter(ctx context.Context) error
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute, or the live value for "value".
	Attribute(ctx context.Context, name string) (string, error)
	// Visible reports whether the element is rendered and could take input.
	Visible(ctx context.Context) (bool, error)
}

// FirstVisible returns the first match of one lookup that is visible.
// Hidden matches are skipped, so a strategy whose only hits are hidden
// reports ErrNoSuchElement.
func FirstVisible(ctx context.Context, p Page, by By, selector string) (Element, error) {
	if !by.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, by)
	}
	elems, err := p.FindElements(ctx, by, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range elems {
		visible, err := el.Visible(ctx)
		switch {
		case errors.Is(err, ErrSessionLost):
			return nil, err
		case err != nil:
			// Nodes detached since the lookup count as hidden.
			continue
		case visible:
			return el, nil
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%s=%q: %w", by, selector, ErrNoSuchElement)
}
