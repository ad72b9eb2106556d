// Package fetch implements the page fetch collaborator on top of Colly.
// Failures are classified into transient and permanent so the orchestrator
// can retry only what is worth retrying.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

// Config tunes the underlying collector.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	Concurrency int
	Delay       time.Duration
}

// CollyFetcher satisfies harvest.Fetcher using a cloned collector per fetch.
type CollyFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

// NewColly constructs a configured fetcher.
func NewColly(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Concurrency,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{base: base, logger: logger}, nil
}

type fetchResult struct {
	page harvest.Page
	err  error
}

// Fetch retrieves a single page. Non-2xx statuses and network failures come
// back as harvest.TransientError or harvest.PermanentError.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (harvest.Page, error) {
	collector := f.base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}
	started := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{page: harvest.Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			HTML:       string(r.Body),
			Duration:   time.Since(started),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{err: classify(rawURL, status, err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return harvest.Page{}, &harvest.PermanentError{URL: rawURL, Err: err}
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return harvest.Page{}, err
		}
		return res.page, res.err
	default:
		return harvest.Page{}, &harvest.TransientError{
			URL: rawURL,
			Err: errors.New("collector produced no result"),
		}
	}
}

// classify maps a failed response to the retry taxonomy: 429 and 5xx are
// transient, other 4xx are permanent, and bare network errors are retried
// unless the context was canceled.
func classify(url string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return &harvest.TransientError{URL: url, StatusCode: status, Err: err}
	case status >= 400:
		return &harvest.PermanentError{URL: url, StatusCode: status, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &harvest.PermanentError{URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &harvest.TransientError{URL: url, Err: err}
	}
	return &harvest.TransientError{URL: url, Err: err}
}
