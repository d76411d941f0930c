// internal/browser/chrome/element.go
package chrome

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Element addresses a DOM node by its CDP node id. Ids go stale after a
// navigation, after which every call fails.
type Element struct {
	page *Page
	id   cdp.NodeID
}

var _ browser.Element = (*Element)(nil)

// visibleJS mirrors the check chromedp.NodeVisible polls on, evaluated once.
const visibleJS = `function() {
	const style = window.getComputedStyle(this);
	const rect = this.getBoundingClientRect();
	return style.display !== 'none' && style.visibility !== 'hidden' && rect.width > 0 && rect.height > 0;
}`

func (e *Element) ids() []cdp.NodeID { return []cdp.NodeID{e.id} }

func (e *Element) Clear(ctx context.Context) error {
	return e.page.run(ctx, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.page.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *Element) PressEnter(ctx context.Context) error {
	return e.page.run(ctx, chromedp.SendKeys(e.ids(), kb.Enter, chromedp.ByNodeID))
}

func (e *Element) Click(ctx context.Context) error {
	return e.page.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.page.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Attribute reads the live value for "value" and the markup attribute
// otherwise.
func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if name == "value" {
		var v string
		if err := e.page.run(ctx, chromedp.Value(e.ids(), &v, chromedp.ByNodeID)); err != nil {
			return "", err
		}
		return v, nil
	}

	var (
		v  string
		ok bool
	)
	if err := e.page.run(ctx, chromedp.AttributeValue(e.ids(), name, &v, &ok, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read attribute %q: %w", name, err)
	}
	return v, nil
}

// Visible evaluates the node's computed style and box once, without waiting.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.id).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node: %w", err)
		}
		defer func() { _ = cdpruntime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		res, exc, err := cdpruntime.CallFunctionOn(visibleJS).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		visible = string(res.Value) == "true"
		return nil
	}))
	return visible, err
}
