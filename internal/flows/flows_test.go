// internal/flows/flows_test.go
package flows

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/termcheck/api/schemas"
	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/browser/browsertest"
	"github.com/xkilldash9x/termcheck/internal/locator"
)

const (
	baseURL     = "https://terms.test/"
	resultXPath = "//div[contains(@class,'result')]"
)

func newTestFlows(t *testing.T) *Flows {
	t.Helper()
	logger := zaptest.NewLogger(t)
	loc := locator.New(logger, 10*time.Millisecond, 2*time.Millisecond)
	return New(logger, loc, Settings{
		BaseURL:        baseURL,
		SuccessMarker:  "sign",
		ResultXPath:    resultXPath,
		OutcomeTimeout: 100 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
}

func newAccount() *schemas.AccountRecord {
	return schemas.NewAccountRecord(1, "testuser1", "SecurePass1!")
}

func loggedInAccount() *schemas.AccountRecord {
	acc := newAccount()
	acc.MarkLoggedIn(true)
	return acc
}

// authPage renders a username and password form whose submit button moves
// the page to next.
func authPage(next string) (*browsertest.Page, *browsertest.Element, *browsertest.Element, *browsertest.Element) {
	page := browsertest.NewPage(baseURL)
	user := page.Add(browser.ByName, "username", browsertest.NewElement(""))
	pass := page.Add(browser.ByName, "password", browsertest.NewElement(""))
	btn := browsertest.NewElement("Sign In").WithAttr("type", "submit")
	btn.OnClick = func() { page.SetURL(next) }
	page.Add(browser.ByXPath, "//button[@type='submit']", btn)
	return page, user, pass, btn
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success when the page leaves the sign up flow", func(t *testing.T) {
		page, user, pass, btn := authPage(baseURL + "dashboard")
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Register(ctx, page, acc))

		assert.True(t, acc.Created)
		assert.Empty(t, acc.Errors)
		assert.Equal(t, "testuser1", user.Value())
		assert.Equal(t, "SecurePass1!", pass.Value())
		assert.Equal(t, 1, btn.Clicks())
		assert.Empty(t, page.Navigations(), "registration starts on the page already loaded")
	})

	t.Run("failure verdict when the url still carries the marker", func(t *testing.T) {
		page, _, _, _ := authPage(baseURL + "SignUp?error=taken")
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Register(ctx, page, acc))

		assert.False(t, acc.Created)
		assert.Empty(t, acc.Errors, "a negative verdict is not an error")
	})

	t.Run("missing password records exactly one error", func(t *testing.T) {
		page := browsertest.NewPage(baseURL)
		user := page.Add(browser.ByName, "username", browsertest.NewElement(""))
		acc := newAccount()

		var err error
		assert.NotPanics(t, func() { err = newTestFlows(t).Register(ctx, page, acc) })
		require.NoError(t, err)

		assert.False(t, acc.Created)
		require.Len(t, acc.Errors, 1)
		assert.Contains(t, acc.Errors[0], "Account creation failed")
		assert.Contains(t, acc.Errors[0], "password field not found")
		assert.Contains(t, acc.Errors[0], string(ErrCodeElementNotFound))
		assert.Equal(t, "testuser1", user.Value(), "fields found before the miss are still filled")
	})

	t.Run("enter key fallback without a submit control", func(t *testing.T) {
		page := browsertest.NewPage(baseURL)
		pass := page.Add(browser.ByCSS, "input[type='password']", browsertest.NewElement(""))
		pass.OnEnter = func() { page.SetURL(baseURL + "welcome") }
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Register(ctx, page, acc))

		assert.Equal(t, 1, pass.Enters())
		assert.True(t, acc.Created)
	})

	t.Run("trigger link is clicked and later indicators are skipped", func(t *testing.T) {
		page, _, _, _ := authPage(baseURL + "dashboard")
		link := page.Add(browser.ByPartialLinkText, "Register", browsertest.NewElement("Register now"))
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Register(ctx, page, acc))

		assert.Equal(t, 1, link.Clicks())
		assert.Equal(t, 0, page.Calls(browser.ByPartialLinkText, "Join"))
		assert.True(t, acc.Created)
	})

	t.Run("optional fields are filled when present", func(t *testing.T) {
		page, _, _, _ := authPage(baseURL + "dashboard")
		email := page.Add(browser.ByName, "email", browsertest.NewElement(""))
		confirm := page.Add(browser.ByXPath, "//input[@placeholder='Confirm Password']", browsertest.NewElement(""))
		first := page.Add(browser.ByName, "first_name", browsertest.NewElement(""))
		acc := newAccount()
		acc.Email = "test1@example.com"
		acc.FirstName = "Test1"

		require.NoError(t, newTestFlows(t).Register(ctx, page, acc))

		assert.Equal(t, "test1@example.com", email.Value())
		assert.Equal(t, "SecurePass1!", confirm.Value())
		assert.Equal(t, "Test1", first.Value())
		assert.Equal(t, 0, page.Calls(browser.ByName, "last_name"), "empty values are never looked up")
	})

	t.Run("panic is recovered and recorded", func(t *testing.T) {
		page, _, _, btn := authPage(baseURL + "dashboard")
		btn.PanicOnClick = true
		acc := newAccount()

		var err error
		assert.NotPanics(t, func() { err = newTestFlows(t).Register(ctx, page, acc) })
		require.NoError(t, err)
		require.Len(t, acc.Errors, 1)
		assert.Contains(t, acc.Errors[0], string(ErrCodeFlowPanic))
		assert.False(t, acc.Created)
	})

	t.Run("lost session escapes", func(t *testing.T) {
		page, _, _, _ := authPage(baseURL + "dashboard")
		page.Lose()
		acc := newAccount()

		err := newTestFlows(t).Register(ctx, page, acc)
		assert.ErrorIs(t, err, browser.ErrSessionLost)
		assert.Len(t, acc.Errors, 1)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("navigates home and logs in", func(t *testing.T) {
		page, user, pass, _ := authPage(baseURL + "home")
		page.SetURL(baseURL + "dashboard")
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Login(ctx, page, acc))

		assert.Equal(t, []string{baseURL}, page.Navigations())
		assert.True(t, acc.LoginSuccessful)
		assert.Equal(t, "testuser1", user.Value())
		assert.Equal(t, "SecurePass1!", pass.Value())
	})

	t.Run("missing password records exactly one error", func(t *testing.T) {
		page := browsertest.NewPage(baseURL)
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Login(ctx, page, acc))
		assert.False(t, acc.LoginSuccessful)
		require.Len(t, acc.Errors, 1)
		assert.Contains(t, acc.Errors[0], "Login failed")
		assert.Contains(t, acc.Errors[0], "password field not found")
	})

	t.Run("navigation failure is recorded", func(t *testing.T) {
		page, _, _, _ := authPage(baseURL + "home")
		page.NavigateErr = assert.AnError
		acc := newAccount()

		require.NoError(t, newTestFlows(t).Login(ctx, page, acc))
		assert.False(t, acc.LoginSuccessful)
		require.Len(t, acc.Errors, 1)
		assert.Contains(t, acc.Errors[0], string(ErrCodeNavigationError))
	})

	t.Run("password field disappearing counts as a reaction", func(t *testing.T) {
		page := browsertest.NewPage(baseURL)
		pass := page.Add(browser.ByName, "password", browsertest.NewElement(""))
		pass.OnEnter = func() { page.Remove(browser.ByName, "password") }
		acc := newAccount()

		start := time.Now()
		require.NoError(t, newTestFlows(t).Login(ctx, page, acc))
		assert.True(t, acc.LoginSuccessful)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func searchPage(results ...string) (*browsertest.Page, *browsertest.Element) {
	page := browsertest.NewPage(baseURL + "home")
	field := page.Add(browser.ByName, "search", browsertest.NewElement(""))
	btn := page.Add(browser.ByXPath, searchSubmit[0].Selector, browsertest.NewElement("Translate"))
	var result *browsertest.Element
	n := 0
	btn.OnClick = func() {
		if n >= len(results) {
			return
		}
		if result == nil {
			result = page.Add(browser.ByXPath, resultXPath, browsertest.NewElement(results[n]))
		} else {
			result.SetText(results[n])
		}
		n++
	}
	return page, field
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("records the translation", func(t *testing.T) {
		page, field := searchPage("Hypertension: high blood pressure", "Tachycardia: fast heart rate")
		acc := loggedInAccount()
		f := newTestFlows(t)

		require.NoError(t, f.Search(ctx, page, acc, "hypertension"))
		assert.Equal(t, "hypertension", field.Value())
		require.NoError(t, f.Search(ctx, page, acc, "tachycardia"))

		require.Len(t, acc.Translations, 2)
		assert.Equal(t, schemas.TranslationAttempt{Term: "hypertension", Translation: "Hypertension: high blood pressure", Success: true}, acc.Translations[0])
		assert.Equal(t, "Tachycardia: fast heart rate", acc.Translations[1].Translation)
		assert.Equal(t, 2, acc.SuccessfulTranslations())
		assert.Empty(t, acc.Errors)
	})

	t.Run("no result node", func(t *testing.T) {
		page, _ := searchPage()
		acc := loggedInAccount()

		require.NoError(t, newTestFlows(t).Search(ctx, page, acc, "anemia"))
		require.Len(t, acc.Translations, 1)
		assert.False(t, acc.Translations[0].Success)
		assert.Equal(t, errNoResult.Error(), acc.Translations[0].Error)
		assert.Empty(t, acc.Errors)
	})

	t.Run("missing search box", func(t *testing.T) {
		page := browsertest.NewPage(baseURL + "home")
		acc := loggedInAccount()

		require.NoError(t, newTestFlows(t).Search(ctx, page, acc, "anemia"))
		require.Len(t, acc.Translations, 1)
		assert.False(t, acc.Translations[0].Success)
		assert.Contains(t, acc.Translations[0].Error, "search field not found")
		require.Len(t, acc.Errors, 1)
		assert.Contains(t, acc.Errors[0], "Translation failed for anemia")
	})

	t.Run("requires login", func(t *testing.T) {
		page, field := searchPage("x")
		acc := newAccount()

		err := newTestFlows(t).Search(ctx, page, acc, "anemia")
		assert.ErrorIs(t, err, schemas.ErrNotLoggedIn)
		assert.Empty(t, acc.Translations)
		assert.Empty(t, field.Value())
	})
}

func TestInspect(t *testing.T) {
	page := browsertest.NewPage(baseURL)
	page.SetTitle("Medical Terms")
	page.Add(browser.ByCSS, "form", browsertest.NewElement(""))
	page.Add(browser.ByCSS, "input", browsertest.NewElement("").
		WithAttr("type", "text").WithAttr("name", "username").WithAttr("placeholder", "Username"))
	page.Add(browser.ByCSS, "input", browsertest.NewElement("").
		WithAttr("type", "password").WithAttr("placeholder", "Password"))
	page.Add(browser.ByCSS, "button", browsertest.NewElement("Sign Up").WithAttr("type", "button"))
	page.Add(browser.ByCSS, "a", browsertest.NewElement("About").WithAttr("href", "/about"))

	ps, err := newTestFlows(t).Inspect(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, "Medical Terms", ps.Title)
	assert.Equal(t, baseURL, ps.URL)
	assert.Equal(t, 1, ps.Forms)
	require.Len(t, ps.Inputs, 2)
	assert.Equal(t, schemas.ElementSnapshot{Type: "text", Name: "username", Placeholder: "Username"}, ps.Inputs[0])
	require.Len(t, ps.Buttons, 1)
	assert.Equal(t, "Sign Up", ps.Buttons[0].Text)
	require.Len(t, ps.Links, 1)
	assert.Equal(t, "/about", ps.Links[0].Href)
	assert.False(t, ps.Timestamp.IsZero())

	page.Lose()
	_, err = newTestFlows(t).Inspect(context.Background(), page)
	assert.ErrorIs(t, err, browser.ErrSessionLost)
}

func TestTriggerStrategies(t *testing.T) {
	assert.Equal(t, "Sign Up", titleCase("sign up"))
	assert.Equal(t, "Account Creation", titleCase("account creation"))

	s := triggerStrategies("sign-up")
	require.Len(t, s, 3)
	assert.Equal(t, locator.Strategy{By: browser.ByPartialLinkText, Selector: "Sign Up"}, s[0])
	assert.Contains(t, s[1].Selector, "'sign-up'")
	assert.Contains(t, s[2].Selector, "'sign up'")

	assert.Len(t, triggerStrategies("join"), 2)
}
