// internal/reporting/console.go
package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/xkilldash9x/termcheck/api/schemas"
)

// PrintSummary writes a colored run overview to w. Colors follow fatih/color's
// terminal detection and the NO_COLOR convention.
func PrintSummary(w io.Writer, report *schemas.SessionReport, paths Artifacts) {
	heading := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	ratio := func(part, total int) string {
		c := good
		if part < total {
			c = bad
		}
		return c.Sprintf("%d/%d", part, total)
	}

	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	heading.Fprintln(w, "MEDICAL TERMS WEBSITE SMOKE TEST SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total accounts tested: %d\n", report.TotalAccounts)
	fmt.Fprintf(w, "Successful account creations: %s\n", ratio(report.SuccessfulAccountCreations, report.TotalAccounts))
	fmt.Fprintf(w, "Successful logins: %s\n", ratio(report.SuccessfulLogins, report.TotalAccounts))
	fmt.Fprintf(w, "Total translations attempted: %d\n", report.TotalTranslationsAttempted)
	fmt.Fprintf(w, "Successful translations: %s\n", ratio(report.SuccessfulTranslations, report.TotalTranslationsAttempted))
	fmt.Fprintf(w, "Issues found: %d\n", len(report.IssuesFound))

	if len(report.IssuesFound) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "ISSUES FOUND:")
		for _, issue := range report.IssuesFound {
			fmt.Fprintf(w, "  %s %s\n", bad.Sprint("✗"), issue)
		}
	}

	if paths.ReportPath != "" {
		fmt.Fprintf(w, "\nDetailed report saved to: %s\n", paths.ReportPath)
	}
	if paths.SummaryPath != "" {
		fmt.Fprintf(w, "Summary saved to: %s\n", paths.SummaryPath)
	}
}
