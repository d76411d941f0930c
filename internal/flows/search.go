// internal/flows/search.go
package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
)

// errNoResult is the reason stored on an attempt that produced no result node.
var errNoResult = errors.New("no translation result found")

// Search looks up term on the current page and appends the attempt to acc.
// The account must be logged in.
func (f *Flows) Search(ctx context.Context, page browser.Page, acc *schemas.AccountRecord, term string) (err error) {
	if !acc.LoginSuccessful {
		return fmt.Errorf("cannot search for %q as %s: %w", term, acc.Username, schemas.ErrNotLoggedIn)
	}

	attempt := schemas.TranslationAttempt{Term: term}
	defer func() {
		if r := recover(); r != nil {
			err = f.recovered(r)
		}
		if err != nil {
			attempt.Success = false
			attempt.Translation = ""
			attempt.Error = err.Error()
		}
		if addErr := acc.AddTranslation(attempt); addErr != nil {
			f.logger.Warn("Translation attempt not recorded.", zap.Error(addErr))
		}
		err = f.settle(ctx, acc, fmt.Sprintf("Translation failed for %s", term), err)
	}()

	translation, err := f.search(ctx, page, term)
	if err != nil {
		return err
	}
	if translation == "" {
		f.logger.Warn("No translation results found.", zap.String("term", term))
		attempt.Error = errNoResult.Error()
		return nil
	}
	attempt.Translation = translation
	attempt.Success = true
	return nil
}

func (f *Flows) search(ctx context.Context, page browser.Page, term string) (string, error) {
	f.logger.Info("Attempting to translate medical term.", zap.String("term", term))

	beforeText, err := f.resultText(ctx, page)
	if err != nil {
		return "", err
	}
	beforeURL, err := page.CurrentURL(ctx)
	if err != nil {
		return "", err
	}

	field, err := f.fill(ctx, page, searchField, term, true)
	if err != nil {
		return "", err
	}
	if err := f.submit(ctx, page, searchSubmit, field); err != nil {
		return "", err
	}

	// A result counts once it is non-empty and is not the one left over
	// from the previous search.
	err = f.waitFor(ctx, "translation result", func(ctx context.Context) (bool, error) {
		text, err := f.resultText(ctx, page)
		if err != nil || text == "" {
			return false, err
		}
		if text != beforeText {
			return true, nil
		}
		current, err := page.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return current != beforeURL, nil
	})
	if err != nil {
		return "", err
	}

	text, err := f.resultText(ctx, page)
	if err != nil {
		return "", err
	}
	if text != "" {
		f.logger.Info("Found translation result.", zap.String("term", term), zap.String("result", truncate(text, 100)))
	}
	return text, nil
}

// resultText returns the trimmed text of the first result node, or "" when
// there is none.
func (f *Flows) resultText(ctx context.Context, page browser.Page) (string, error) {
	nodes, err := page.FindElements(ctx, browser.ByXPath, f.settings.ResultXPath)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	text, err := nodes[0].Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
