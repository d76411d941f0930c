// Package flows drives the registration, login and term search protocols
// against a browser.Page and records their outcome on an AccountRecord.
//
// Every flow follows the same steps: discover a trigger that reveals the form,
// fill the fields that can be found, submit, wait for the page to react and
// judge the result. Failures are recorded on the account instead of being
// returned. Only a lost browser session or a cancelled context escapes, since
// both end the run.
package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
	"github.com/xkilldash9x/termcheck/internal/locator"
)

const defaultPollInterval = 250 * time.Millisecond

// Settings tune how flows judge the target site.
type Settings struct {
	BaseURL string
	// SuccessMarker is the URL substring that means the user is still on a
	// sign in or sign up page. Empty disables the check.
	SuccessMarker  string
	ResultXPath    string
	OutcomeTimeout time.Duration
	PollInterval   time.Duration
}

// SettingsFromConfig extracts the flow settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BaseURL:        cfg.Target.BaseURL,
		SuccessMarker:  cfg.Target.SuccessMarker,
		ResultXPath:    cfg.Target.ResultXPath,
		OutcomeTimeout: cfg.Run.OutcomeTimeout,
		PollInterval:   cfg.Run.PollInterval,
	}
}

// Flows runs the interaction protocols. It holds no per-account state and can
// be reused across accounts, but not concurrently on the same page.
type Flows struct {
	logger   *zap.Logger
	locator  *locator.Locator
	settings Settings
}

// New creates Flows that locate fields through loc.
func New(logger *zap.Logger, loc *locator.Locator, settings Settings) *Flows {
	if settings.PollInterval <= 0 {
		settings.PollInterval = defaultPollInterval
	}
	return &Flows{
		logger:   logger.Named("flows"),
		locator:  loc,
		settings: settings,
	}
}

// settle records err on the account and decides whether it escapes the flow.
func (f *Flows) settle(ctx context.Context, acc *schemas.AccountRecord, label string, err error) error {
	if err == nil {
		return nil
	}
	f.logger.Error(label, zap.String("username", acc.Username), zap.Error(err))
	acc.AddError("%s: %v", label, err)
	if errors.Is(err, browser.ErrSessionLost) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

// recovered turns a panic into a FlowError and logs the stack.
func (f *Flows) recovered(r interface{}) error {
	ferr, stack := panicError(r)
	f.logger.Error("Flow panicked.", zap.Any("panic", r), zap.ByteString("stack", stack))
	return ferr
}

// firstMatch queries each strategy once and returns the first visible match. Misses and
// strategies the driver rejects fall through to the next entry.
func firstMatch(ctx context.Context, page browser.Page, strategies []locator.Strategy) (browser.Element, locator.Strategy, error) {
	for _, s := range strategies {
		el, err := browser.FirstVisible(ctx, page, s.By, s.Selector)
		if err == nil {
			return el, s, nil
		}
		if errors.Is(err, browser.ErrSessionLost) {
			return nil, s, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s, ctxErr
		}
	}
	return nil, locator.Strategy{}, browser.ErrNoSuchElement
}

// discoverTrigger clicks the first link or button matching an indicator, in
// indicator order. Finding none means the form is already on screen.
func (f *Flows) discoverTrigger(ctx context.Context, page browser.Page, indicators []string) error {
	for _, indicator := range indicators {
		el, s, err := firstMatch(ctx, page, triggerStrategies(indicator))
		if errors.Is(err, browser.ErrNoSuchElement) {
			continue
		}
		if err != nil {
			return err
		}
		if err := el.Click(ctx); err != nil {
			return newFlowError(ErrCodeInteractionFailed, err, "failed to click %q trigger", indicator)
		}
		f.logger.Info("Clicked form trigger.",
			zap.String("indicator", indicator),
			zap.String("by", string(s.By)),
		)
		return nil
	}
	f.logger.Debug("No trigger found, assuming the form is visible.")
	return nil
}

// fill locates a field and types value into it. A missing optional field
// returns (nil, nil); a missing required one is an ELEMENT_NOT_FOUND error.
func (f *Flows) fill(ctx context.Context, page browser.Page, spec locator.FieldSpec, value string, required bool) (browser.Element, error) {
	el, found := f.locator.Locate(ctx, page, spec)
	if !found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !required {
			return nil, nil
		}
		// Tell a vanished browser apart from a page that lacks the field.
		if _, err := page.CurrentURL(ctx); errors.Is(err, browser.ErrSessionLost) {
			return nil, err
		}
		return nil, newFlowError(ErrCodeElementNotFound, nil, "%s field not found", spec.Field)
	}
	if err := el.Clear(ctx); err != nil {
		return nil, newFlowError(ErrCodeInteractionFailed, err, "failed to clear %s field", spec.Field)
	}
	if err := el.SendKeys(ctx, value); err != nil {
		return nil, newFlowError(ErrCodeInteractionFailed, err, "failed to type into %s field", spec.Field)
	}
	f.logger.Debug("Filled field.", zap.String("field", spec.Field))
	return el, nil
}

// fillOptional fills spec only when there is a value for it.
func (f *Flows) fillOptional(ctx context.Context, page browser.Page, spec locator.FieldSpec, value string) error {
	if value == "" {
		return nil
	}
	_, err := f.fill(ctx, page, spec, value, false)
	return err
}

// submit clicks the first submit control found, or presses Enter in fallback.
func (f *Flows) submit(ctx context.Context, page browser.Page, strategies []locator.Strategy, fallback browser.Element) error {
	el, s, err := firstMatch(ctx, page, strategies)
	switch {
	case err == nil:
		if err := el.Click(ctx); err != nil {
			return newFlowError(ErrCodeSubmitFailed, err, "failed to click submit control")
		}
		f.logger.Debug("Clicked submit control.", zap.String("selector", s.Selector))
		return nil
	case errors.Is(err, browser.ErrNoSuchElement):
		if fallback == nil {
			return newFlowError(ErrCodeSubmitFailed, nil, "no submit control found")
		}
		if err := fallback.PressEnter(ctx); err != nil {
			return newFlowError(ErrCodeSubmitFailed, err, "failed to submit with Enter")
		}
		f.logger.Debug("Submitted with the Enter key.")
		return nil
	default:
		return err
	}
}

// waitFor polls cond until it holds or OutcomeTimeout passes. Running out of
// time is not an error: the caller judges whatever state the page is in.
func (f *Flows) waitFor(ctx context.Context, what string, cond func(context.Context) (bool, error)) error {
	waitCtx := ctx
	if f.settings.OutcomeTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, f.settings.OutcomeTimeout)
		defer cancel()
	}
	ticker := time.NewTicker(f.settings.PollInterval)
	defer ticker.Stop()

	for {
		done, err := cond(waitCtx)
		switch {
		case err == nil && done:
			return nil
		case errors.Is(err, browser.ErrSessionLost):
			return err
		case err != nil:
			f.logger.Debug("Outcome check failed, retrying.", zap.String("waiting_for", what), zap.Error(err))
		}

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			f.logger.Debug("Outcome wait timed out.", zap.String("waiting_for", what))
			return nil
		case <-ticker.C:
		}
	}
}

// awaitAuthOutcome waits until the URL changes or the password field goes
// away, then judges the resulting URL.
func (f *Flows) awaitAuthOutcome(ctx context.Context, page browser.Page, beforeURL string) (bool, error) {
	err := f.waitFor(ctx, "auth outcome", func(ctx context.Context) (bool, error) {
		current, err := page.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		if current != beforeURL {
			return true, nil
		}
		_, _, err = firstMatch(ctx, page, passwordField.Strategies)
		if errors.Is(err, browser.ErrNoSuchElement) {
			return true, nil
		}
		return false, err
	})
	if err != nil {
		return false, err
	}

	current, err := page.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	return f.authSucceeded(current), nil
}

// authSucceeded is a URL heuristic: a user who is still on a sign in or sign
// up page did not get through.
func (f *Flows) authSucceeded(currentURL string) bool {
	marker := strings.ToLower(f.settings.SuccessMarker)
	if marker == "" {
		return true
	}
	return !strings.Contains(strings.ToLower(currentURL), marker)
}
