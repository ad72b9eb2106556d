// Package pipeline composes a full run: discovery, hybrid scoring, and the
// scrape phase, sharing one normalizer and one set of budgets throughout.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/discovery"
	"github.com/sitescout/harvester/internal/harvest"
	"github.com/sitescout/harvester/internal/orchestrate"
	"github.com/sitescout/harvester/internal/scoring"
	"github.com/sitescout/harvester/internal/urlnorm"
)

// Run phases reported in progress snapshots.
const (
	PhaseIdle        = "idle"
	PhaseDiscovering = "discovering"
	PhaseScoring     = "scoring"
	PhaseScraping    = "scraping"
	PhaseDone        = "done"
	PhaseCanceled    = "canceled"
)

// Config is the run-level configuration surface consumed by the pipeline.
type Config struct {
	TargetURL string
	MaxPages  int
	Workers   int
	// MaxRetries is the total fetch attempts per page during scraping.
	MaxRetries int

	SitemapMinPages   int
	DeepCrawlEnabled  bool
	DeepCrawlBudget   int
	DeepCrawlWorkers  int
	DeepCrawlMinPages int
	MaxURLs           int
	DiscoveryRate     float64
}

// Result is everything a completed (or canceled) run produced.
type Result struct {
	Contacts   []harvest.ContactRecord
	Candidates []harvest.CandidateURL
	Stats      harvest.StatsSnapshot
}

// Pipeline owns the state of a single run. It satisfies
// harvest.ProgressObserver for pull-based progress reporting.
type Pipeline struct {
	cfg       Config
	fetcher   harvest.Fetcher
	aiScorer  harvest.URLScorer
	extractor harvest.ContactExtractor
	logger    *zap.Logger

	runID      string
	stats      *orchestrate.Stats
	phase      atomic.Value
	discovered atomic.Int64
}

// New builds a Pipeline. aiScorer may be nil to disable AI refinement.
func New(
	cfg Config,
	fetcher harvest.Fetcher,
	aiScorer harvest.URLScorer,
	extractor harvest.ContactExtractor,
	logger *zap.Logger,
) (*Pipeline, error) {
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("target url is required")
	}
	if cfg.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		aiScorer:  aiScorer,
		extractor: extractor,
		logger:    logger,
		runID:     uuid.NewString(),
		stats:     &orchestrate.Stats{},
	}
	p.phase.Store(PhaseIdle)
	return p, nil
}

// RunID identifies this run in progress snapshots and logs.
func (p *Pipeline) RunID() string { return p.runID }

// Run executes the full pipeline. It only errors on setup problems; page,
// batch, and strategy failures are absorbed per the error taxonomy, and a
// canceled run still returns everything gathered so far.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	norm, err := urlnorm.New(p.cfg.TargetURL)
	if err != nil {
		return Result{}, fmt.Errorf("init normalizer: %w", err)
	}

	deepBudget := 0
	if p.cfg.DeepCrawlEnabled {
		deepBudget = p.cfg.DeepCrawlBudget
	}
	budgets := harvest.NewBudgets(p.cfg.MaxPages, deepBudget)

	p.logger.Info("run starting",
		zap.String("run_id", p.runID),
		zap.String("target", p.cfg.TargetURL),
		zap.Int("max_pages", p.cfg.MaxPages),
		zap.Int("workers", p.cfg.Workers),
		zap.Bool("deep_crawl", p.cfg.DeepCrawlEnabled),
		zap.Bool("ai_scoring", p.aiScorer != nil),
	)

	p.phase.Store(PhaseDiscovering)
	engine := discovery.New(discovery.Config{
		TargetURL:         p.cfg.TargetURL,
		MaxPages:          p.cfg.MaxPages,
		SitemapMinPages:   p.cfg.SitemapMinPages,
		DeepCrawlEnabled:  p.cfg.DeepCrawlEnabled,
		DeepCrawlMinPages: p.cfg.DeepCrawlMinPages,
		DeepCrawlWorkers:  p.cfg.DeepCrawlWorkers,
		MaxURLs:           p.cfg.MaxURLs,
		RatePerSecond:     p.cfg.DiscoveryRate,
	}, p.fetcher, norm, budgets, p.logger)
	candidates := engine.Discover(ctx)
	p.discovered.Store(int64(len(candidates)))

	p.phase.Store(PhaseScoring)
	scorer := scoring.New(p.aiScorer, budgets, p.logger)
	ranked := scorer.Rank(ctx, candidates, p.cfg.MaxPages)
	p.logger.Info("candidates ranked",
		zap.Int("discovered", len(candidates)),
		zap.Int("planned", len(ranked)),
		zap.Int("ai_batches", budgets.AIBatchesIssued()),
	)

	p.phase.Store(PhaseScraping)
	orch := orchestrate.New(
		p.fetcher,
		p.extractor,
		orchestrate.NewRetryPolicy(p.cfg.MaxRetries),
		p.cfg.Workers,
		p.stats,
		p.logger,
	)
	contacts := orch.Run(ctx, ranked)

	if ctx.Err() != nil {
		p.phase.Store(PhaseCanceled)
	} else {
		p.phase.Store(PhaseDone)
	}

	snapshot := p.Snapshot()
	p.logger.Info("run finished",
		zap.String("run_id", p.runID),
		zap.String("phase", snapshot.Phase),
		zap.Int("pages_scraped", snapshot.PagesScraped),
		zap.Int("emails_found", snapshot.EmailsFound),
		zap.Int("fetch_errors", snapshot.FetchErrors),
		zap.Duration("elapsed", snapshot.Elapsed),
	)
	return Result{Contacts: contacts, Candidates: ranked, Stats: snapshot}, nil
}

// Snapshot returns the current read-only progress view.
func (p *Pipeline) Snapshot() harvest.StatsSnapshot {
	return harvest.StatsSnapshot{
		RunID:           p.runID,
		TargetURL:       p.cfg.TargetURL,
		Phase:           p.phase.Load().(string),
		URLsDiscovered:  int(p.discovered.Load()),
		PagesPlanned:    p.stats.PagesPlanned(),
		PagesScraped:    p.stats.PagesScraped(),
		EmailsFound:     p.stats.EmailsFound(),
		DuplicateEmails: p.stats.DuplicateEmails(),
		FetchErrors:     p.stats.FetchErrors(),
		Elapsed:         p.stats.Elapsed(),
		PagesPerSecond:  p.stats.PagesPerSecond(),
	}
}
