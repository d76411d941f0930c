// internal/reporting/artifacts.go
package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/termcheck/api/schemas"
)

const (
	reportPrefix   = "termcheck_report_"
	summaryPrefix  = "termcheck_summary_"
	fileTimeLayout = "20060102_150405"
)

// Artifacts are the files written for one run.
type Artifacts struct {
	ReportPath  string
	SummaryPath string
}

// ArtifactPaths derives the timestamped file names inside dir. A leading ~ in
// dir is expanded to the home directory.
func ArtifactPaths(dir string, at time.Time) (Artifacts, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to expand output directory %q: %w", dir, err)
	}
	stamp := at.Format(fileTimeLayout)
	return Artifacts{
		ReportPath:  filepath.Join(expanded, reportPrefix+stamp+".json"),
		SummaryPath: filepath.Join(expanded, summaryPrefix+stamp+".txt"),
	}, nil
}

// WriteArtifacts writes the JSON report and the text summary side by side.
func WriteArtifacts(ctx context.Context, report *schemas.SessionReport, dir string, logger *zap.Logger) (Artifacts, error) {
	paths, err := ArtifactPaths(dir, report.Timestamp)
	if err != nil {
		return Artifacts{}, err
	}
	if err := os.MkdirAll(filepath.Dir(paths.ReportPath), 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeReport(gctx, FormatJSON, paths.ReportPath, "", report)
	})
	g.Go(func() error {
		return writeReport(gctx, FormatText, paths.SummaryPath, filepath.Base(paths.ReportPath), report)
	})
	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}

	logger.Info("Report generated successfully.",
		zap.String("report", paths.ReportPath),
		zap.String("summary", paths.SummaryPath),
	)
	return paths, nil
}

func writeReport(ctx context.Context, format, path, detailsPath string, report *schemas.SessionReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := New(format, path, detailsPath)
	if err != nil {
		return err
	}
	if err := r.Write(report); err != nil {
		_ = r.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := r.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
