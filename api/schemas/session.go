package schemas

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotLoggedIn is returned when a translation is recorded for an account
// that never logged in.
var ErrNotLoggedIn = errors.New("translation recorded before login succeeded")

// -- Account Schemas --

// AccountRecord is one synthetic account and everything that happened to it
// during a run. It is owned by a single goroutine and mutated in place as the
// registration, login and search phases complete.
type AccountRecord struct {
	AccountNumber   int                  `json:"account_number"`
	Username        string               `json:"username"`
	Password        string               `json:"password"`
	Email           string               `json:"email,omitempty"`
	FirstName       string               `json:"first_name,omitempty"`
	LastName        string               `json:"last_name,omitempty"`
	Created         bool                 `json:"created"`
	LoginSuccessful bool                 `json:"login_successful"`
	Translations    []TranslationAttempt `json:"translations"`
	Errors          []string             `json:"errors"`
	PageStructure   *PageStructure       `json:"page_structure,omitempty"`
}

// NewAccountRecord returns a record with empty, non-nil outcome slices so the
// report always renders them as arrays.
func NewAccountRecord(number int, username, password string) *AccountRecord {
	return &AccountRecord{
		AccountNumber: number,
		Username:      username,
		Password:      password,
		Translations:  []TranslationAttempt{},
		Errors:        []string{},
	}
}

// MarkCreated records the registration verdict.
func (a *AccountRecord) MarkCreated(ok bool) { a.Created = ok }

// MarkLoggedIn records the login verdict.
func (a *AccountRecord) MarkLoggedIn(ok bool) { a.LoginSuccessful = ok }

// AddError appends a formatted error message.
func (a *AccountRecord) AddError(format string, args ...interface{}) {
	a.Errors = append(a.Errors, fmt.Sprintf(format, args...))
}

// AddTranslation appends a search attempt. Attempts are only accepted once
// the account has logged in.
func (a *AccountRecord) AddTranslation(t TranslationAttempt) error {
	if !a.LoginSuccessful {
		return fmt.Errorf("account %s: %w", a.Username, ErrNotLoggedIn)
	}
	a.Translations = append(a.Translations, t)
	return nil
}

// SuccessfulTranslations counts the attempts that produced a translation.
func (a *AccountRecord) SuccessfulTranslations() int {
	n := 0
	for _, t := range a.Translations {
		if t.Success {
			n++
		}
	}
	return n
}

// TranslationAttempt is the outcome of one term search.
type TranslationAttempt struct {
	Term        string `json:"term"`
	Translation string `json:"translation,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// -- Page Inspection Schemas --

// PageStructure is a snapshot of the interactive elements on a page.
type PageStructure struct {
	Title     string            `json:"title"`
	URL       string            `json:"url"`
	Timestamp time.Time         `json:"timestamp"`
	Forms     int               `json:"forms"`
	Inputs    []ElementSnapshot `json:"inputs"`
	Buttons   []ElementSnapshot `json:"buttons"`
	Links     []ElementSnapshot `json:"links"`
}

// ElementSnapshot holds the attributes of interest for one element. Fields
// irrelevant to the element kind stay empty.
type ElementSnapshot struct {
	Text        string `json:"text,omitempty"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Class       string `json:"class,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Href        string `json:"href,omitempty"`
}

// -- Report Schemas --

// SessionReport aggregates a finished run.
type SessionReport struct {
	RunID                      string           `json:"run_id"`
	Timestamp                  time.Time        `json:"timestamp"`
	TargetURL                  string           `json:"target_url"`
	Driver                     string           `json:"driver"`
	Duration                   string           `json:"duration"`
	TotalAccounts              int              `json:"total_accounts"`
	SuccessfulAccountCreations int              `json:"successful_account_creations"`
	SuccessfulLogins           int              `json:"successful_logins"`
	TotalTranslationsAttempted int              `json:"total_translations_attempted"`
	SuccessfulTranslations     int              `json:"successful_translations"`
	Accounts                   []*AccountRecord `json:"accounts"`
	IssuesFound                []string         `json:"issues_found"`
}
