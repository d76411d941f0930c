// internal/browser/static/element.go
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Element is a node of the page's current document.
type Element struct {
	page *Page
	node *html.Node
}

var _ browser.Element = (*Element)(nil)

func (e *Element) tag() string { return strings.ToLower(e.node.Data) }

// Clear empties an input's value or a textarea's content.
func (e *Element) Clear(ctx context.Context) error {
	if err := e.page.alive(); err != nil {
		return err
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.tag() == "textarea" {
		setTextContent(e.node, "")
		return nil
	}
	removeAttr(e.node, "value")
	return nil
}

// SendKeys appends text to the element's value.
func (e *Element) SendKeys(ctx context.Context, text string) error {
	if err := e.page.alive(); err != nil {
		return err
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	if e.tag() == "textarea" {
		setTextContent(e.node, htmlquery.InnerText(e.node)+text)
		return nil
	}
	setAttr(e.node, "value", htmlquery.SelectAttr(e.node, "value")+text)
	return nil
}

// PressEnter submits the enclosing form, as a browser does for text inputs.
func (e *Element) PressEnter(ctx context.Context) error {
	if err := e.page.alive(); err != nil {
		return err
	}
	form := findParentForm(e.node)
	if form == nil {
		e.page.logger.Debug("Enter pressed outside a form, nothing to submit.", zap.String("tag", e.tag()))
		return nil
	}
	return e.page.submitForm(ctx, form)
}

// Click follows links, submits forms and toggles checkboxes. Other clicks
// would need JavaScript and are ignored.
func (e *Element) Click(ctx context.Context) error {
	if err := e.page.alive(); err != nil {
		return err
	}
	tag := e.tag()
	inputType := strings.ToLower(htmlquery.SelectAttr(e.node, "type"))

	if tag == "a" {
		href := htmlquery.SelectAttr(e.node, "href")
		if href != "" && !strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return e.page.Navigate(ctx, href)
		}
	}

	isSubmit := (tag == "button" && (inputType == "submit" || inputType == "")) ||
		(tag == "input" && inputType == "submit")
	if isSubmit {
		if form := findParentForm(e.node); form != nil {
			return e.page.submitForm(ctx, form)
		}
	}

	if tag == "input" && inputType == "checkbox" {
		e.page.mu.Lock()
		defer e.page.mu.Unlock()
		if htmlquery.SelectAttr(e.node, "checked") != "" {
			removeAttr(e.node, "checked")
		} else {
			setAttr(e.node, "checked", "checked")
		}
		return nil
	}

	e.page.logger.Debug("Click had no effect without a script engine.", zap.String("tag", tag))
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.page.alive(); err != nil {
		return "", err
	}
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	return strings.TrimSpace(htmlquery.InnerText(e.node)), nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	if err := e.page.alive(); err != nil {
		return "", err
	}
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()
	if name == "value" && e.tag() == "textarea" {
		return htmlquery.InnerText(e.node), nil
	}
	return htmlquery.SelectAttr(e.node, name), nil
}

// Visible reports whether neither the node nor an ancestor is hidden by the
// hidden attribute, type=hidden or an inline display/visibility style.
// Stylesheets are not evaluated.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := e.page.alive(); err != nil {
		return false, err
	}
	e.page.mu.RLock()
	defer e.page.mu.RUnlock()

	if e.tag() == "input" && strings.EqualFold(htmlquery.SelectAttr(e.node, "type"), "hidden") {
		return false, nil
	}
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hasAttr(n, "hidden") {
			return false, nil
		}
		style := strings.ToLower(strings.Join(strings.Fields(htmlquery.SelectAttr(n, "style")), ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
	}
	return true, nil
}

// submitForm serializes form and sends it the way a browser would.
func (p *Page) submitForm(ctx context.Context, form *html.Node) error {
	action := htmlquery.SelectAttr(form, "action")
	method := strings.ToUpper(htmlquery.SelectAttr(form, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	target, err := p.resolveURL(action)
	if err != nil || action == "" {
		if target, err = p.resolveURL(""); err != nil {
			return fmt.Errorf("failed to determine form submission URL: %w", err)
		}
	}

	p.mu.RLock()
	values, err := serializeForm(form)
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		u := *target
		u.RawQuery = values.Encode()
		if req, err = http.NewRequestWithContext(ctx, method, u.String(), nil); err != nil {
			return err
		}
	}

	p.prepareRequestHeaders(req)
	p.logger.Debug("Submitting form", zap.String("method", method), zap.String("url", req.URL.String()))
	return p.load(req)
}

func serializeForm(form *html.Node) (url.Values, error) {
	values := url.Values{}
	fields, err := htmlquery.QueryAll(form, ".//input | .//textarea | .//select")
	if err != nil {
		return nil, fmt.Errorf("failed to query form elements: %w", err)
	}

	for _, field := range fields {
		name := htmlquery.SelectAttr(field, "name")
		if name == "" {
			continue
		}
		switch strings.ToLower(field.Data) {
		case "input":
			switch strings.ToLower(htmlquery.SelectAttr(field, "type")) {
			case "checkbox", "radio":
				if htmlquery.SelectAttr(field, "checked") != "" {
					v := htmlquery.SelectAttr(field, "value")
					if v == "" {
						v = "on"
					}
					values.Add(name, v)
				}
			case "submit", "button", "image", "reset", "file":
			default:
				values.Add(name, htmlquery.SelectAttr(field, "value"))
			}
		case "textarea":
			values.Add(name, htmlquery.InnerText(field))
		case "select":
			for _, opt := range htmlquery.Find(field, ".//option[@selected]") {
				v := htmlquery.SelectAttr(opt, "value")
				if v == "" {
					v = htmlquery.InnerText(opt)
				}
				values.Add(name, v)
			}
		}
	}
	return values, nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func removeAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func setTextContent(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func findParentForm(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && strings.ToLower(p.Data) == "form" {
			return p
		}
	}
	return nil
}
