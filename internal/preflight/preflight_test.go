// internal/preflight/preflight_test.go
package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/termcheck/internal/config"
)

func newTestChecker(t *testing.T, retries int) *Checker {
	c := New(config.NetworkConfig{CheckTimeout: 2 * time.Second, CheckRetries: retries}, zaptest.NewLogger(t))
	c.InitialInterval = time.Millisecond
	return c
}

func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&hits, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		srv, hits := countingServer(t, http.StatusOK)
		require.NoError(t, newTestChecker(t, 3).Check(ctx, srv.URL))
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("transient statuses are retried", func(t *testing.T) {
		srv, hits := countingServer(t, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusOK)
		require.NoError(t, newTestChecker(t, 3).Check(ctx, srv.URL))
		assert.Equal(t, int32(3), atomic.LoadInt32(hits))
	})

	t.Run("client errors fail at once", func(t *testing.T) {
		srv, hits := countingServer(t, http.StatusNotFound)
		err := newTestChecker(t, 3).Check(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("retries are bounded", func(t *testing.T) {
		srv, hits := countingServer(t, http.StatusInternalServerError)
		err := newTestChecker(t, 2).Check(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Equal(t, int32(3), atomic.LoadInt32(hits))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		assert.ErrorIs(t, newTestChecker(t, 1).Check(ctx, url), ErrUnreachable)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := countingServer(t, http.StatusServiceUnavailable)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, newTestChecker(t, 5).Check(cctx, srv.URL), ErrUnreachable)
	})
}
