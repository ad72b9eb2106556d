// Package discovery produces the candidate URL set for a run. Three
// strategies contribute: sitemap probing, pattern generation, and a budgeted
// breadth-first deep crawl. All admissions funnel through the shared
// normalizer, so the output never contains a canonical URL twice.
package discovery

import (
	"context"
	"net/url"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sitescout/harvester/internal/harvest"
	"github.com/sitescout/harvester/internal/urlnorm"
)

// Config holds run parameters for the discovery engine.
type Config struct {
	// TargetURL is the seed the run was started with.
	TargetURL string
	// MaxPages is the final scrape ceiling; strategy gating keys off it.
	MaxPages int
	// SitemapMinPages gates the sitemap strategy: probing conventional
	// sitemap paths only pays off for larger runs.
	SitemapMinPages int
	// DeepCrawlEnabled switches the budgeted breadth-first crawl on.
	DeepCrawlEnabled bool
	// DeepCrawlMinPages is the second, higher size gate for deep crawling.
	DeepCrawlMinPages int
	// DeepCrawlWorkers bounds simultaneous discovery fetches.
	DeepCrawlWorkers int
	// MaxURLs caps the total discovered set.
	MaxURLs int
	// RatePerSecond throttles discovery fetches against the fetch service.
	RatePerSecond float64
}

const (
	defaultDeepCrawlWorkers = 3
	defaultMaxURLs          = 2000
	defaultRatePerSecond    = 2
)

// Engine runs the discovery strategies and collects candidates.
type Engine struct {
	cfg     Config
	fetcher harvest.Fetcher
	norm    *urlnorm.Normalizer
	budgets *harvest.Budgets
	limiter *rate.Limiter
	logger  *zap.Logger

	seq        atomic.Int64
	candidates []harvest.CandidateURL
}

// New constructs an Engine. The normalizer is shared with later phases so
// its seen-set stays authoritative for the whole run.
func New(
	cfg Config,
	fetcher harvest.Fetcher,
	norm *urlnorm.Normalizer,
	budgets *harvest.Budgets,
	logger *zap.Logger,
) *Engine {
	if cfg.DeepCrawlWorkers <= 0 {
		cfg.DeepCrawlWorkers = defaultDeepCrawlWorkers
	}
	if cfg.MaxURLs <= 0 {
		cfg.MaxURLs = defaultMaxURLs
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRatePerSecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		norm:    norm,
		budgets: budgets,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  logger,
	}
}

// Discover runs every enabled strategy and returns the deduplicated union of
// their candidates. Strategy failures are non-fatal; a strategy that cannot
// reach its source simply contributes nothing.
func (e *Engine) Discover(ctx context.Context) []harvest.CandidateURL {
	seed, ok := e.admit(e.cfg.TargetURL, "", harvest.SourceCrawl, 0)
	if !ok {
		e.logger.Warn("seed url rejected by normalizer", zap.String("url", e.cfg.TargetURL))
	}

	if e.cfg.MaxPages >= e.cfg.SitemapMinPages {
		e.discoverSitemaps(ctx)
	} else {
		e.logger.Debug("sitemap strategy skipped for small run",
			zap.Int("max_pages", e.cfg.MaxPages),
			zap.Int("min_pages", e.cfg.SitemapMinPages),
		)
	}

	e.discoverPatterns()

	if e.cfg.DeepCrawlEnabled && e.cfg.MaxPages >= e.cfg.DeepCrawlMinPages && ok {
		e.deepCrawl(ctx, seed)
	}

	e.logger.Info("discovery complete",
		zap.Int("candidates", len(e.candidates)),
		zap.Int("deep_crawl_budget_left", e.budgets.DeepCrawlFetchesLeft()),
	)
	return e.candidates
}

// admit normalizes and deduplicates a raw URL. The first admission wins
// source, depth, and sequence number.
func (e *Engine) admit(rawURL, baseURL string, source harvest.Source, depth int) (harvest.CandidateURL, bool) {
	if len(e.candidates) >= e.cfg.MaxURLs {
		return harvest.CandidateURL{}, false
	}
	canonical, err := e.norm.Normalize(rawURL, baseURL)
	if err != nil {
		return harvest.CandidateURL{}, false
	}
	if !e.norm.MarkSeen(canonical) {
		return harvest.CandidateURL{}, false
	}
	cand := harvest.CandidateURL{
		URL:    canonical,
		Source: source,
		Depth:  depth,
		Seq:    e.seq.Add(1),
	}
	e.candidates = append(e.candidates, cand)
	return cand, true
}

// origin returns scheme://host of the target URL for building probe paths.
func (e *Engine) origin() string {
	u, err := url.Parse(e.cfg.TargetURL)
	if err != nil {
		return e.cfg.TargetURL
	}
	return u.Scheme + "://" + u.Host
}
