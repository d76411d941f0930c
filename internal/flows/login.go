// internal/flows/login.go
package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Login returns to the base URL, signs in as acc and records the verdict with
// MarkLoggedIn. It is attempted whether or not registration succeeded, since
// the account may already exist.
func (f *Flows) Login(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = f.recovered(r)
		}
		err = f.settle(ctx, acc, "Login failed", err)
	}()

	ok, err := f.login(ctx, page, acc)
	if err != nil {
		return err
	}
	acc.MarkLoggedIn(ok)
	return nil
}

func (f *Flows) login(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) (bool, error) {
	logger := f.logger.With(zap.String("username", acc.Username))
	logger.Info("Attempting to log in.")

	if err := page.Navigate(ctx, f.settings.BaseURL); err != nil {
		return false, newFlowError(ErrCodeNavigationError, err, "failed to open %s", f.settings.BaseURL)
	}
	if err := f.discoverTrigger(ctx, page, loginIndicators); err != nil {
		return false, err
	}
	beforeURL, err := page.CurrentURL(ctx)
	if err != nil {
		return false, err
	}

	if err := f.fillOptional(ctx, page, loginUsernameField, acc.Username); err != nil {
		return false, err
	}
	password, err := f.fill(ctx, page, passwordField, acc.Password, true)
	if err != nil {
		return false, err
	}
	if err := f.submit(ctx, page, loginSubmit, password); err != nil {
		return false, err
	}

	ok, err := f.awaitAuthOutcome(ctx, page, beforeURL)
	if err != nil {
		return false, err
	}
	logger.Info("Login finished.", zap.Bool("success", ok))
	return ok, nil
}
