// Package orchestrate drives the scrape phase: a fixed worker pool consumes
// the ranked candidate list in order, fetching pages with bounded retries,
// extracting contacts, and deduplicating them by email under a single lock.
package orchestrate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

// Status is the lifecycle state of a candidate in the scrape list.
type Status string

// Candidate states. Transient retries stay InFlight; exhausting them moves
// the candidate to FailedPermanent.
const (
	StatusPending         Status = "pending"
	StatusInFlight        Status = "in_flight"
	StatusSucceeded       Status = "succeeded"
	StatusFailedPermanent Status = "failed_permanent"
)

// candidateState pairs a candidate with its scrape progress.
type candidateState struct {
	cand     harvest.CandidateURL
	status   Status
	attempts int
}

// Orchestrator runs the worker pool over a fixed, pre-ranked candidate list.
// The list is never re-ordered; workers consume it front to back.
type Orchestrator struct {
	fetcher   harvest.Fetcher
	extractor harvest.ContactExtractor
	retry     *RetryPolicy
	workers   int
	stats     *Stats
	logger    *zap.Logger

	mu         sync.Mutex
	states     []candidateState
	next       int
	seenEmails map[string]struct{}
	results    []harvest.ContactRecord
}

// New constructs an Orchestrator with the given pool size.
func New(
	fetcher harvest.Fetcher,
	extractor harvest.ContactExtractor,
	retry *RetryPolicy,
	workers int,
	stats *Stats,
	logger *zap.Logger,
) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	if retry == nil {
		retry = NewRetryPolicy(0)
	}
	if stats == nil {
		stats = &Stats{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		retry:     retry,
		workers:   workers,
		stats:     stats,
		logger:    logger,
	}
}

// Run scrapes the candidate list and returns the deduplicated contacts.
// Cancellation is cooperative: once ctx is done no new candidate is
// dispatched, in-flight fetches finish, and everything collected so far is
// returned intact.
func (o *Orchestrator) Run(ctx context.Context, candidates []harvest.CandidateURL) []harvest.ContactRecord {
	o.mu.Lock()
	o.states = make([]candidateState, len(candidates))
	for i, cand := range candidates {
		o.states[i] = candidateState{cand: cand, status: StatusPending}
	}
	o.next = 0
	o.seenEmails = make(map[string]struct{})
	o.results = nil
	o.mu.Unlock()

	o.stats.Start(len(candidates))

	// In-flight work must survive cancellation; only dispatch stops.
	fetchCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				idx, ok := o.claimNext()
				if !ok {
					return
				}
				o.process(fetchCtx, idx)
			}
		}()
	}
	wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]harvest.ContactRecord, len(o.results))
	copy(out, o.results)
	return out
}

// claimNext marks the next pending candidate in-flight and returns its index.
func (o *Orchestrator) claimNext() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.next >= len(o.states) {
		return 0, false
	}
	idx := o.next
	o.next++
	o.states[idx].status = StatusInFlight
	return idx, true
}

func (o *Orchestrator) process(ctx context.Context, idx int) {
	o.mu.Lock()
	cand := o.states[idx].cand
	o.mu.Unlock()

	page, err := o.fetchWithRetry(ctx, idx, cand.URL)

	defer func() {
		o.stats.pagesScraped.Add(1)
		totalPagesScraped.Inc()
	}()

	if err != nil {
		o.setStatus(idx, StatusFailedPermanent)
		o.stats.fetchErrors.Add(1)
		totalFetchErrors.Inc()
		o.logger.Warn("page failed permanently",
			zap.String("url", cand.URL),
			zap.Error(err),
		)
		return
	}

	contacts := o.extractor.Extract(page.HTML, cand.URL)
	retained := o.retain(contacts)
	o.setStatus(idx, StatusSucceeded)
	o.logger.Debug("page scraped",
		zap.String("url", cand.URL),
		zap.Int("status_code", page.StatusCode),
		zap.Int("contacts", len(contacts)),
		zap.Int("retained", retained),
	)
}

// fetchWithRetry applies the retry policy: transient failures back off and
// retry; exhausting attempts converts the last transient error into the
// page's permanent failure.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, idx int, url string) (harvest.Page, error) {
	var lastErr error
	for attempt := 1; attempt <= o.retry.MaxAttempts(); attempt++ {
		o.mu.Lock()
		o.states[idx].attempts = attempt
		o.mu.Unlock()

		page, err := o.fetcher.Fetch(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !o.retry.ShouldRetry(err, attempt) {
			break
		}
		totalFetchRetries.Inc()
		o.logger.Debug("retrying after transient failure",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(o.retry.Backoff(attempt))
	}
	return harvest.Page{}, lastErr
}

// retain deduplicates extracted contacts against the run-scoped email set
// and appends the new ones to the result collection. It returns how many
// records were kept.
func (o *Orchestrator) retain(contacts []harvest.ContactRecord) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := 0
	for _, record := range contacts {
		key := record.DedupKey()
		if key == "" {
			continue
		}
		if _, dup := o.seenEmails[key]; dup {
			o.stats.duplicateEmails.Add(1)
			totalDuplicateEmails.Inc()
			continue
		}
		o.seenEmails[key] = struct{}{}
		o.results = append(o.results, record)
		o.stats.emailsFound.Add(1)
		totalEmailsFound.Inc()
		kept++
	}
	return kept
}

func (o *Orchestrator) setStatus(idx int, status Status) {
	o.mu.Lock()
	o.states[idx].status = status
	o.mu.Unlock()
}

// StatusCounts reports how many candidates sit in each state. Used by
// progress reporting.
func (o *Orchestrator) StatusCounts() map[Status]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	counts := make(map[Status]int, 4)
	for _, st := range o.states {
		counts[st.status]++
	}
	return counts
}
