// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/termcheck/api/schemas"
)

// Reporter renders a finished session to an output.
type Reporter interface {
	// Write renders the report.
	Write(report *schemas.SessionReport) error
	// Close releases the underlying writer.
	Close() error
}

// Supported report formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates a reporter for format writing to a new file at outputPath. A
// text summary names detailsPath in its footer when it is set.
func New(format, outputPath, detailsPath string) (Reporter, error) {
	switch format {
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	if format == FormatJSON {
		return NewJSONReporter(f), nil
	}
	return NewTextReporter(f, detailsPath), nil
}

// JSONReporter writes the full SessionReport as indented JSON.
type JSONReporter struct {
	w io.WriteCloser
}

// NewJSONReporter takes ownership of w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Write(report *schemas.SessionReport) error {
	data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error { return r.w.Close() }

var recommendations = []string{
	"Check website accessibility and structure",
	"Review form field identifiers and validation",
	"Test translation functionality manually",
	"Verify user authentication flow",
	"Check for any rate limiting or bot detection",
}

// TextReporter writes the human readable summary.
type TextReporter struct {
	w io.WriteCloser
	// detailsPath names the JSON report in the footer, when known.
	detailsPath string
	now         func() time.Time
}

// NewTextReporter takes ownership of w. detailsPath may be empty.
func NewTextReporter(w io.WriteCloser, detailsPath string) *TextReporter {
	return &TextReporter{w: w, detailsPath: detailsPath, now: time.Now}
}

func (r *TextReporter) Write(report *schemas.SessionReport) error {
	if _, err := io.WriteString(r.w, r.render(report)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error { return r.w.Close() }

func (r *TextReporter) render(report *schemas.SessionReport) string {
	var b strings.Builder
	total := report.TotalAccounts

	b.WriteString("Medical Terms Website Smoke Test Report\n")
	b.WriteString("=======================================\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Website: %s\n", report.TargetURL)
	fmt.Fprintf(&b, "Run ID: %s\n", report.RunID)
	if report.Driver != "" {
		fmt.Fprintf(&b, "Driver: %s\n", report.Driver)
	}
	if report.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", report.Duration)
	}

	b.WriteString("\nSUMMARY STATISTICS:\n")
	fmt.Fprintf(&b, "- Total Accounts Tested: %d\n", total)
	fmt.Fprintf(&b, "- Successful Registrations: %d/%d (%.1f%%)\n",
		report.SuccessfulAccountCreations, total, percent(report.SuccessfulAccountCreations, total))
	fmt.Fprintf(&b, "- Successful Logins: %d/%d (%.1f%%)\n",
		report.SuccessfulLogins, total, percent(report.SuccessfulLogins, total))
	fmt.Fprintf(&b, "- Total Translation Attempts: %d\n", report.TotalTranslationsAttempted)
	fmt.Fprintf(&b, "- Successful Translations: %d/%d (%.1f%%)\n",
		report.SuccessfulTranslations, report.TotalTranslationsAttempted,
		percent(report.SuccessfulTranslations, report.TotalTranslationsAttempted))

	b.WriteString("\nDETAILED RESULTS:\n")
	for i, acc := range report.Accounts {
		fmt.Fprintf(&b, "\nAccount %d: %s\n", i+1, acc.Username)
		fmt.Fprintf(&b, "- Registration: %s\n", mark(acc.Created))
		fmt.Fprintf(&b, "- Login: %s\n", mark(acc.LoginSuccessful))
		fmt.Fprintf(&b, "- Translations: %d/%d\n", acc.SuccessfulTranslations(), len(acc.Translations))
		fmt.Fprintf(&b, "- Errors: %d\n", len(acc.Errors))
		if len(acc.Errors) > 0 {
			fmt.Fprintf(&b, "  Errors: %s\n", strings.Join(acc.Errors, "; "))
		}
	}

	if len(report.IssuesFound) > 0 {
		b.WriteString("\nISSUES FOUND:\n")
		for _, issue := range report.IssuesFound {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}

	b.WriteString("\nRECOMMENDATIONS:\n")
	for i, rec := range recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	if r.detailsPath != "" {
		fmt.Fprintf(&b, "\nFor detailed technical information, see: %s\n", r.detailsPath)
	}
	return b.String()
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
