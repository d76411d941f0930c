// File: internal/orchestrator/orchestrator.go
// Description: Runs a smoke test session. One browser page is shared by every
// account, which goes through registration, login and term searches in turn.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/accounts"
	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
	"github.com/xkilldash9x/termcheck/internal/flows"
	"github.com/xkilldash9x/termcheck/internal/locator"
	"github.com/xkilldash9x/termcheck/internal/preflight"
	"github.com/xkilldash9x/termcheck/internal/reporting"
)

// ErrRunAborted is returned, together with a partial report, when the run
// stopped before every account was processed.
var ErrRunAborted = errors.New("run aborted")

// Flows is the set of page interactions run for each account.
type Flows interface {
	Inspect(ctx context.Context, page browser.Page) (*schemas.PageStructure, error)
	Register(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) error
	Login(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) error
	Search(ctx context.Context, page browser.Page, acc *schemas.AccountRecord, term string) error
}

// TargetChecker checks that the target is up before a browser is launched.
type TargetChecker interface {
	Check(ctx context.Context, url string) error
}

// Orchestrator manages the lifecycle of a smoke test session.
type Orchestrator struct {
	cfg     *config.Config
	logger  *zap.Logger
	driver  browser.Driver
	flows   Flows
	checker TargetChecker
	rng     *rand.Rand
	now     func() time.Time
}

// New creates an Orchestrator from its collaborators.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	driver browser.Driver,
	flows Flows,
	checker TargetChecker,
) (*Orchestrator, error) {
	if cfg == nil ||
		logger == nil ||
		driver == nil ||
		flows == nil ||
		checker == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	seed := cfg.Run.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Orchestrator{
		cfg:     cfg,
		logger:  logger.Named("orchestrator"),
		driver:  driver,
		flows:   flows,
		checker: checker,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
	}, nil
}

// NewFromConfig wires the default flows and pre-flight check around driver.
func NewFromConfig(cfg *config.Config, logger *zap.Logger, driver browser.Driver) (*Orchestrator, error) {
	loc := locator.New(logger, cfg.Run.LookupTimeout, cfg.Run.PollInterval)
	f := flows.New(logger, loc, flows.SettingsFromConfig(cfg))
	return New(cfg, logger, driver, f, preflight.New(cfg.Network, logger))
}

// Run executes the session and returns its report. A pre-flight failure
// returns no report. When the run stops early, because the context ended or
// the browser became unusable, the report covers the accounts processed so
// far and the error wraps ErrRunAborted.
func (o *Orchestrator) Run(ctx context.Context) (*schemas.SessionReport, error) {
	if o.cfg.Run.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Run.Deadline)
		defer cancel()
	}

	runID := uuid.New().String()
	started := o.now().UTC()
	logger := o.logger.With(zap.String("run_id", runID))
	meta := reporting.Metadata{
		RunID:     runID,
		TargetURL: o.cfg.Target.BaseURL,
		Driver:    o.driver.Name(),
		Started:   started,
	}
	logger.Info("Starting smoke test session.",
		zap.String("target", o.cfg.Target.BaseURL),
		zap.String("driver", o.driver.Name()),
		zap.Int("accounts", o.cfg.Run.Accounts),
	)

	if err := o.checker.Check(ctx, o.cfg.Target.BaseURL); err != nil {
		return nil, fmt.Errorf("pre-flight check failed: %w", err)
	}

	gen, err := accounts.NewGenerator(o.cfg.Run.Scheme, o.cfg.Run.Seed)
	if err != nil {
		return nil, err
	}
	batch, err := gen.Generate(o.cfg.Run.Accounts)
	if err != nil {
		return nil, err
	}

	page, err := o.driver.Launch(ctx)
	if err != nil {
		logger.Error("Browser could not be launched.", zap.Error(err))
		for _, acc := range batch {
			acc.AddError("Browser session unavailable: %v", err)
		}
		meta.Duration = o.now().Sub(started)
		return reporting.Build(batch, meta), fmt.Errorf("%w: failed to launch browser: %w", ErrRunAborted, err)
	}
	defer func() {
		if err := page.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Browser did not close cleanly.", zap.Error(err))
		}
		logger.Info("Browser closed.")
	}()

	processed, stopErr := o.runAccounts(ctx, page, batch)

	meta.Duration = o.now().Sub(started)
	report := reporting.Build(processed, meta)
	logger.Info("Session finished.",
		zap.Int("accounts_processed", len(processed)),
		zap.Int("issues", len(report.IssuesFound)),
		zap.Duration("duration", meta.Duration),
	)
	if stopErr != nil {
		return report, fmt.Errorf("%w after %d of %d accounts: %w", ErrRunAborted, len(processed), len(batch), stopErr)
	}
	return report, nil
}

func (o *Orchestrator) runAccounts(ctx context.Context, page browser.Page, batch []*schemas.AccountRecord) ([]*schemas.AccountRecord, error) {
	processed := make([]*schemas.AccountRecord, 0, len(batch))
	for i, acc := range batch {
		// The pause runs from the end of one account to the start of the next.
		delay := o.cfg.Run.AccountDelay
		if i == 0 {
			delay = 0
		}
		if err := sleep(ctx, delay); err != nil {
			o.logger.Warn("Stopping before the next account.", zap.Error(err))
			return processed, err
		}
		o.logger.Info(fmt.Sprintf("Testing account %d/%d", i+1, len(batch)), zap.String("username", acc.Username))

		stopErr := o.runAccount(ctx, page, acc)
		processed = append(processed, acc)
		if stopErr != nil {
			o.logger.Error("Stopping run.", zap.String("username", acc.Username), zap.Error(stopErr))
			return processed, stopErr
		}
	}
	return processed, nil
}

// runAccount drives one account through its phases. The returned error is
// non-nil only when the run must stop.
func (o *Orchestrator) runAccount(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) (stopErr error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Account test panicked.", zap.String("username", acc.Username), zap.Any("panic", r))
			acc.AddError("General error for account %s: %v", acc.Username, r)
		}
	}()

	if err := page.Navigate(ctx, o.cfg.Target.BaseURL); err != nil {
		acc.AddError("General error for account %s: %v", acc.Username, err)
		return o.fatal(ctx, err)
	}

	if o.cfg.Run.CapturePageStructure {
		ps, err := o.flows.Inspect(ctx, page)
		if err != nil {
			o.logger.Warn("Page structure not captured.", zap.Error(err))
			if stop := o.fatal(ctx, err); stop != nil {
				return stop
			}
		} else {
			acc.PageStructure = ps
		}
	}

	if err := o.step(ctx, acc, "Account creation failed", func() error {
		return o.flows.Register(ctx, page, acc)
	}); err != nil {
		return err
	}
	if err := o.step(ctx, acc, "Login failed", func() error {
		return o.flows.Login(ctx, page, acc)
	}); err != nil {
		return err
	}
	if !acc.LoginSuccessful {
		return nil
	}

	for i, term := range o.sampleTerms() {
		if i > 0 {
			if err := sleep(ctx, o.cfg.Run.SearchDelay); err != nil {
				return err
			}
		}
		if err := o.step(ctx, acc, "Translation failed for "+term, func() error {
			return o.flows.Search(ctx, page, acc, term)
		}); err != nil {
			return err
		}
	}
	return nil
}

// step runs one flow and isolates its failures to the account. Flows record
// their own failures, so an error reaching this point is only recorded when
// it does not end the run.
func (o *Orchestrator) step(ctx context.Context, acc *schemas.AccountRecord, label string, fn func() error) (stopErr error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Flow panicked.", zap.String("step", label), zap.Any("panic", r))
			acc.AddError("%s: %v", label, r)
			stopErr = o.fatal(ctx, nil)
		}
	}()

	err := fn()
	if err == nil {
		return nil
	}
	if stop := o.fatal(ctx, err); stop != nil {
		return stop
	}
	acc.AddError("%s: %v", label, err)
	return nil
}

// fatal reports whether err, or the context, should end the run.
func (o *Orchestrator) fatal(ctx context.Context, err error) error {
	if errors.Is(err, browser.ErrSessionLost) {
		return err
	}
	return ctx.Err()
}

// sampleTerms picks TermsPerAccount distinct terms.
func (o *Orchestrator) sampleTerms() []string {
	terms := o.cfg.Run.Terms
	n := o.cfg.Run.TermsPerAccount
	if n > len(terms) {
		n = len(terms)
	}
	out := make([]string, 0, n)
	for _, idx := range o.rng.Perm(len(terms))[:n] {
		out = append(out, terms[idx])
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
