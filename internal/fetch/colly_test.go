package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

func newTestFetcher(t *testing.T) *CollyFetcher {
	t.Helper()
	f, err := NewColly(Config{
		UserAgent:   "harvester-test",
		Timeout:     5 * time.Second,
		Concurrency: 2,
	}, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "harvester-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	page, err := f.Fetch(context.Background(), srv.URL+"/staff")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, page.HTML, "hello")
	require.Greater(t, page.Duration, time.Duration(0))
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.True(t, harvest.IsPermanent(err), "404 must not be retried: %v", err)
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL+"/busy")
	require.Error(t, err)
	require.True(t, harvest.IsTransient(err), "503 must be retryable: %v", err)
}

func TestFetchRateLimitedIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), srv.URL+"/throttled")
	require.Error(t, err)
	require.True(t, harvest.IsTransient(err), "429 must be retryable: %v", err)
}

func TestFetchUnreachableHostIsTransient(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(t)
	// Reserved port on localhost with nothing listening.
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/none")
	require.Error(t, err)
	require.True(t, harvest.IsTransient(err), "connection refusal must be retryable: %v", err)
}

func TestFetchInvalidURLIsPermanent(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), "not-a-url")
	require.Error(t, err)
	require.True(t, harvest.IsPermanent(err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		err       error
		transient bool
	}{
		{name: "429", status: http.StatusTooManyRequests, transient: true},
		{name: "500", status: 500, transient: true},
		{name: "502", status: 502, transient: true},
		{name: "403", status: 403, transient: false},
		{name: "404", status: 404, transient: false},
		{name: "timeout", err: &net.DNSError{IsTimeout: true}, transient: true},
		{name: "generic network error", err: errors.New("connection reset"), transient: true},
		{name: "context canceled", err: context.Canceled, transient: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := classify("https://example.edu/x", tt.status, tt.err)
			require.Equal(t, tt.transient, harvest.IsTransient(err))
			require.Equal(t, !tt.transient, harvest.IsPermanent(err))
		})
	}
}
