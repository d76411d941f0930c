// internal/locator/locator.go
package locator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Strategy is one way of finding a field.
type Strategy struct {
	By       browser.By
	Selector string
}

// FieldSpec lists, in priority order, the strategies tried for one logical
// field.
type FieldSpec struct {
	Field      string
	Strategies []Strategy
}

// Spec builds a FieldSpec.
func Spec(field string, strategies ...Strategy) FieldSpec {
	return FieldSpec{Field: field, Strategies: strategies}
}

// Locator resolves FieldSpecs against a live page.
type Locator struct {
	logger   *zap.Logger
	timeout  time.Duration
	interval time.Duration
}

// New creates a Locator that polls each strategy every interval for at most
// timeout.
func New(logger *zap.Logger, timeout, interval time.Duration) *Locator {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if timeout < 0 {
		timeout = 0
	}
	return &Locator{
		logger:   logger.Named("locator"),
		timeout:  timeout,
		interval: interval,
	}
}

// Locate tries each strategy of spec in order and returns the first visible
// match. Hidden matches fall through to the next strategy. A miss on every strategy is a normal outcome: it is logged at warn level
// and reported as found == false.
func (l *Locator) Locate(ctx context.Context, page browser.Page, spec FieldSpec) (el browser.Element, found bool) {
	for i, s := range spec.Strategies {
		el, err := l.poll(ctx, page, s)
		if err == nil {
			l.logger.Debug("Field located.",
				zap.String("field", spec.Field),
				zap.String("by", string(s.By)),
				zap.String("selector", s.Selector),
				zap.Int("attempt", i+1),
			)
			return el, true
		}
		if errors.Is(err, browser.ErrSessionLost) {
			l.logger.Error("Lookup aborted, browser session is gone.", zap.String("field", spec.Field))
			return nil, false
		}
		if ctx.Err() != nil {
			l.logger.Debug("Lookup cancelled.", zap.String("field", spec.Field), zap.Error(ctx.Err()))
			return nil, false
		}
	}

	l.logger.Warn("Field not found with any strategy.",
		zap.String("field", spec.Field),
		zap.Int("strategies", len(spec.Strategies)),
	)
	return nil, false
}

// poll queries a single strategy until it matches or the per-strategy
// timeout expires.
func (l *Locator) poll(ctx context.Context, page browser.Page, s Strategy) (browser.Element, error) {
	pollCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		el, err := browser.FirstVisible(pollCtx, page, s.By, s.Selector)
		switch {
		case err == nil:
			return el, nil
		case errors.Is(err, browser.ErrSessionLost), errors.Is(err, browser.ErrUnsupportedStrategy):
			return nil, err
		case !errors.Is(err, browser.ErrNoSuchElement):
			l.logger.Debug("Lookup error.", zap.String("by", string(s.By)), zap.String("selector", s.Selector), zap.Error(err))
		}

		select {
		case <-pollCtx.Done():
			return nil, pollCtx.Err()
		case <-ticker.C:
		}
	}
}
