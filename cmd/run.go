// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/browser/chrome"
	"github.com/xkilldash9x/termcheck/internal/browser/pw"
	"github.com/xkilldash9x/termcheck/internal/browser/static"
	"github.com/xkilldash9x/termcheck/internal/config"
	"github.com/xkilldash9x/termcheck/internal/observability"
	"github.com/xkilldash9x/termcheck/internal/orchestrator"
	"github.com/xkilldash9x/termcheck/internal/reporting"
)

// runFlags maps each run flag to the configuration key it overrides.
var runFlags = map[string]string{
	"url":        "target.base_url",
	"accounts":   "run.accounts",
	"scheme":     "run.scheme",
	"seed":       "run.seed",
	"driver":     "browser.driver",
	"headless":   "browser.headless",
	"output-dir": "report.output_dir",
}

func newDriver(cfg *config.Config, logger *zap.Logger) (browser.Driver, error) {
	switch cfg.Browser.Driver {
	case config.DriverChromedp:
		return chrome.New(cfg, logger), nil
	case config.DriverPlaywright:
		return pw.New(cfg, logger), nil
	case config.DriverStatic:
		return static.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver: %q", cfg.Browser.Driver)
	}
}

func newRunCmd(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Register, log in and search terms with a batch of test accounts",
		Long: `Runs the smoke test session against the target site. Every account is
registered, logged in and used for a few random term lookups. A JSON report
and a text summary are written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := a.cfg

			driver, err := newDriver(cfg, logger)
			if err != nil {
				return err
			}

			orch, err := orchestrator.NewFromConfig(cfg, logger, driver)
			if err != nil {
				return fmt.Errorf("failed to initialize orchestrator: %w", err)
			}

			report, runErr := orch.Run(ctx)
			if report == nil {
				return runErr
			}

			// Artifacts are written even for an aborted run so the partial results survive.
			paths, err := reporting.WriteArtifacts(ctx, report, cfg.Report.OutputDir, logger)
			if err != nil {
				logger.Error("Failed to write report artifacts", zap.Error(err))
				if runErr == nil {
					return err
				}
			}
			reporting.PrintSummary(cmd.OutOrStdout(), report, paths)
			return runErr
		},
	}

	flags := runCmd.Flags()
	flags.String("url", "", "Base URL of the site under test")
	flags.Int("accounts", 0, "Number of test accounts to run")
	flags.String("scheme", "", "Account scheme: sequential or random")
	flags.Int64("seed", 0, "Seed for account and term sampling (0 uses the clock)")
	flags.String("driver", "", "Browser driver: chromedp, playwright or static")
	flags.Bool("headless", true, "Run the browser headless")
	flags.String("output-dir", "", "Directory for the report and summary files")

	// Flags are bound on the command's own viper instance so only flags the
	// user actually set override the file and environment values.
	for flag, key := range runFlags {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	return runCmd
}
