// internal/reporting/builder.go
package reporting

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/termcheck/api/schemas"
)

// Metadata describes the run a report belongs to.
type Metadata struct {
	RunID     string
	TargetURL string
	Driver    string
	Started   time.Time
	Duration  time.Duration
}

// Build aggregates account records into a SessionReport. It does not modify
// the records, and equal inputs give equal reports.
func Build(accounts []*schemas.AccountRecord, meta Metadata) *schemas.SessionReport {
	report := &schemas.SessionReport{
		RunID:         meta.RunID,
		Timestamp:     meta.Started,
		TargetURL:     meta.TargetURL,
		Driver:        meta.Driver,
		Duration:      meta.Duration.Round(time.Millisecond).String(),
		TotalAccounts: len(accounts),
		Accounts:      accounts,
		IssuesFound:   Issues(accounts),
	}
	if report.Accounts == nil {
		report.Accounts = []*schemas.AccountRecord{}
	}

	for _, acc := range accounts {
		if acc.Created {
			report.SuccessfulAccountCreations++
		}
		if acc.LoginSuccessful {
			report.SuccessfulLogins++
		}
		report.TotalTranslationsAttempted += len(acc.Translations)
		report.SuccessfulTranslations += acc.SuccessfulTranslations()
	}
	return report
}

// Issues lists one message per failed phase. A login failure is only an
// issue when the account was created, since logging into an account that
// never existed is expected to fail.
func Issues(accounts []*schemas.AccountRecord) []string {
	issues := []string{}
	for _, acc := range accounts {
		if !acc.Created {
			issues = append(issues, fmt.Sprintf("Account creation failed for %s", acc.Username))
		}
		if acc.Created && !acc.LoginSuccessful {
			issues = append(issues, fmt.Sprintf("Login failed for %s", acc.Username))
		}
		for _, t := range acc.Translations {
			if t.Success {
				continue
			}
			reason := t.Error
			if reason == "" {
				reason = "no result"
			}
			issues = append(issues, fmt.Sprintf("Translation failed for '%s' in account %s: %s", t.Term, acc.Username, reason))
		}
	}
	return issues
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
