// internal/flows/selectors.go
package flows

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/locator"
)

var (
	registrationIndicators = []string{
		"register", "signup", "sign-up", "create-account", "join",
		"registration", "new-user", "account-creation",
	}
	loginIndicators = []string{"login", "sign-in", "signin", "log-in", "enter"}
)

func byCSS(sel string) locator.Strategy   { return locator.Strategy{By: browser.ByCSS, Selector: sel} }
func byXPath(sel string) locator.Strategy { return locator.Strategy{By: browser.ByXPath, Selector: sel} }
func byName(sel string) locator.Strategy  { return locator.Strategy{By: browser.ByName, Selector: sel} }
func byID(sel string) locator.Strategy    { return locator.Strategy{By: browser.ByID, Selector: sel} }

// Registration form fields.
var (
	usernameField = locator.Spec("username",
		byName("username"),
		byID("username"),
		byCSS("input[name='username']"),
		byXPath("//input[@placeholder='Username' or @placeholder='User Name']"),
	)
	emailField = locator.Spec("email",
		byName("email"),
		byID("email"),
		byCSS("input[type='email']"),
		byXPath("//input[@placeholder='Email' or @placeholder='Email Address']"),
	)
	passwordField = locator.Spec("password",
		byName("password"),
		byID("password"),
		byCSS("input[type='password']"),
		byXPath("//input[@placeholder='Password']"),
	)
	confirmPasswordField = locator.Spec("confirm_password",
		byXPath("//input[@placeholder='Confirm Password']"),
		byName("confirmPassword"),
		byName("confirm_password"),
	)
	firstNameField = locator.Spec("first_name",
		byName("first_name"),
		byName("firstName"),
		byXPath("//input[@placeholder='First Name']"),
	)
	lastNameField = locator.Spec("last_name",
		byName("last_name"),
		byName("lastName"),
		byXPath("//input[@placeholder='Last Name']"),
	)
)

// The login form accepts either a username or an email in its first field.
var loginUsernameField = locator.Spec("username",
	byName("username"),
	byID("username"),
	byCSS("input[name='email']"),
	byXPath("//input[@placeholder='Username' or @placeholder='Email']"),
)

var searchField = locator.Spec("search",
	byName("search"),
	byID("search"),
	byCSS("input[placeholder*='search' i]"),
	byCSS("textarea[placeholder*='medical' i]"),
	byXPath("//*[self::input or self::textarea][contains(@placeholder,'term') or contains(@placeholder,'medical') or "+
		"contains(@placeholder,'translate') or @placeholder='Search' or @placeholder='Enter term' or @placeholder='Medical term']"),
)

// Submit controls are tried once each, text matches first.
var (
	registrationSubmit = submitStrategies("Create Account", "Register", "Sign Up", "Submit")
	loginSubmit        = append(submitStrategies("Sign In", "Login", "Log In"), byXPath("//input[@type='submit']"))
	searchSubmit       = submitStrategies("Translate", "Search", "Submit")
)

func submitStrategies(labels ...string) []locator.Strategy {
	out := make([]locator.Strategy, 0, len(labels)+1)
	for _, label := range labels {
		out = append(out, byXPath(fmt.Sprintf("//button[not(@type='button')][contains(normalize-space(.), %s)]",
			browser.XPathLiteral(label))))
	}
	return append(out, byXPath("//button[@type='submit']"))
}

const (
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

// triggerStrategies expands one indicator into its link and button lookups.
// Buttons that would submit a form are excluded so a login form's own submit
// is never mistaken for a mode switch.
func triggerStrategies(indicator string) []locator.Strategy {
	spaced := strings.ReplaceAll(indicator, "-", " ")
	out := []locator.Strategy{{By: browser.ByPartialLinkText, Selector: titleCase(spaced)}}

	words := []string{strings.ToLower(indicator)}
	if spaced != indicator {
		words = append(words, strings.ToLower(spaced))
	}
	for _, w := range words {
		out = append(out, byXPath(fmt.Sprintf(
			"//button[not(@type='submit') and (@type='button' or not(ancestor::form))]"+
				"[contains(translate(normalize-space(.), '%s', '%s'), %s)]",
			upperAlpha, lowerAlpha, browser.XPathLiteral(w))))
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
