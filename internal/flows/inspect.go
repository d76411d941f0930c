// internal/flows/inspect.go
package flows

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Inspect snapshots the forms, inputs, buttons and links of the current page.
// It is diagnostic only, so a snapshot that cannot be taken is logged by the
// caller and the run goes on.
func (f *Flows) Inspect(ctx context.Context, page browser.Page) (ps *schemas.PageStructure, err error) {
	defer func() {
		if r := recover(); r != nil {
			ps, err = nil, f.recovered(r)
		}
	}()

	ps = &schemas.PageStructure{Timestamp: time.Now().UTC()}
	if ps.Title, err = page.Title(ctx); err != nil {
		return nil, fmt.Errorf("failed to read title: %w", err)
	}
	if ps.URL, err = page.CurrentURL(ctx); err != nil {
		return nil, fmt.Errorf("failed to read url: %w", err)
	}

	forms, err := page.FindElements(ctx, browser.ByCSS, "form")
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	ps.Forms = len(forms)

	if ps.Inputs, err = snapshot(ctx, page, "input", false, "type", "name", "id", "class", "placeholder"); err != nil {
		return nil, err
	}
	if ps.Buttons, err = snapshot(ctx, page, "button", true, "type", "id", "class"); err != nil {
		return nil, err
	}
	if ps.Links, err = snapshot(ctx, page, "a", true, "href", "id", "class"); err != nil {
		return nil, err
	}

	f.logger.Info("Captured page structure.",
		zap.String("title", ps.Title),
		zap.Int("forms", ps.Forms),
		zap.Int("inputs", len(ps.Inputs)),
		zap.Int("buttons", len(ps.Buttons)),
		zap.Int("links", len(ps.Links)),
	)
	return ps, nil
}

func snapshot(ctx context.Context, page browser.Page, tag string, withText bool, attrs ...string) ([]schemas.ElementSnapshot, error) {
	elems, err := page.FindElements(ctx, browser.ByCSS, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s elements: %w", tag, err)
	}
	out := make([]schemas.ElementSnapshot, 0, len(elems))
	for _, el := range elems {
		var snap schemas.ElementSnapshot
		if withText {
			if snap.Text, err = el.Text(ctx); err != nil {
				return nil, err
			}
		}
		for _, attr := range attrs {
			v, err := el.Attribute(ctx, attr)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s@%s: %w", tag, attr, err)
			}
			switch attr {
			case "type":
				snap.Type = v
			case "name":
				snap.Name = v
			case "id":
				snap.ID = v
			case "class":
				snap.Class = v
			case "placeholder":
				snap.Placeholder = v
			case "href":
				snap.Href = v
			}
		}
		out = append(out, snap)
	}
	return out, nil
}
