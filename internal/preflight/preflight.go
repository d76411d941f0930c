// internal/preflight/preflight.go
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/termcheck/internal/config"
)

// ErrUnreachable means the target never answered with 200 OK.
var ErrUnreachable = errors.New("target site is not accessible")

// Checker checks the target before any browser is started.
type Checker struct {
	client  *http.Client
	logger  *zap.Logger
	retries int
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
}

// New creates a Checker from the network settings.
func New(cfg config.NetworkConfig, logger *zap.Logger) *Checker {
	return &Checker{
		client:          &http.Client{Timeout: cfg.CheckTimeout},
		logger:          logger.Named("preflight"),
		retries:         cfg.CheckRetries,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Check issues GET requests against url until one returns 200. Network errors
// and 429/5xx answers are retried with exponential backoff; any other status
// fails immediately.
func (c *Checker) Check(ctx context.Context, url string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 2 * time.Minute

	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			c.logger.Warn("Reachability check failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode == http.StatusOK:
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			c.logger.Warn("Target answered with a transient status, retrying...",
				zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return fmt.Errorf("unexpected status code %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status code %d", resp.StatusCode))
		}
	}

	retries := c.retries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("Website is not accessible.", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, url, err)
	}
	c.logger.Info("Website is accessible.", zap.String("url", url), zap.Int("attempts", attempt))
	return nil
}
