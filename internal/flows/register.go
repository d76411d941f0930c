// internal/flows/register.go
package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
)

// Register tries to create acc on the page currently loaded and records the
// verdict with MarkCreated. Step failures land in acc.Errors; only a lost
// session or a cancelled context is returned.
func (f *Flows) Register(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = f.recovered(r)
		}
		err = f.settle(ctx, acc, "Account creation failed", err)
	}()

	ok, err := f.register(ctx, page, acc)
	if err != nil {
		return err
	}
	acc.MarkCreated(ok)
	return nil
}

func (f *Flows) register(ctx context.Context, page browser.Page, acc *schemas.AccountRecord) (bool, error) {
	logger := f.logger.With(zap.String("username", acc.Username))
	logger.Info("Attempting to create account.")

	if err := f.discoverTrigger(ctx, page, registrationIndicators); err != nil {
		return false, err
	}
	beforeURL, err := page.CurrentURL(ctx)
	if err != nil {
		return false, err
	}

	if err := f.fillOptional(ctx, page, usernameField, acc.Username); err != nil {
		return false, err
	}
	if err := f.fillOptional(ctx, page, emailField, acc.Email); err != nil {
		return false, err
	}
	password, err := f.fill(ctx, page, passwordField, acc.Password, true)
	if err != nil {
		return false, err
	}
	if err := f.fillOptional(ctx, page, confirmPasswordField, acc.Password); err != nil {
		return false, err
	}
	if err := f.fillOptional(ctx, page, firstNameField, acc.FirstName); err != nil {
		return false, err
	}
	if err := f.fillOptional(ctx, page, lastNameField, acc.LastName); err != nil {
		return false, err
	}

	if err := f.submit(ctx, page, registrationSubmit, password); err != nil {
		return false, err
	}
	ok, err := f.awaitAuthOutcome(ctx, page, beforeURL)
	if err != nil {
		return false, err
	}
	logger.Info("Registration finished.", zap.Bool("success", ok))
	return ok, nil
}
