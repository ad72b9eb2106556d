// Package harvest defines the core types and collaborator interfaces for the
// contact harvesting pipeline: discovered candidate URLs, extracted contact
// records, run-scoped budgets, and aggregate run statistics.
package harvest

import (
	"strings"
	"sync/atomic"
	"time"
)

// Source identifies which discovery strategy produced a candidate.
type Source string

// Discovery sources, in the order strategies run.
const (
	SourceSitemap Source = "sitemap"
	SourcePattern Source = "pattern"
	SourceCrawl   Source = "crawl"
)

// CandidateURL is a discovered, normalized link considered for scraping.
// The canonical URL is unique within a run; the first discoverer wins
// Source, Depth, and Seq. Once the ranked list is built the struct is
// treated as immutable.
type CandidateURL struct {
	// URL is the canonical form produced by the normalizer.
	URL string
	// Source records the strategy that first discovered the URL.
	Source Source
	// Depth is the link distance from the seed (0 for sitemap/pattern).
	Depth int
	// Seq is a monotonic discovery sequence number used as a stable
	// tie-break when final scores are equal.
	Seq int64
	// KeywordScore is the deterministic path-keyword score.
	KeywordScore int
	// AILikelihood holds the optional model-assigned likelihood in [0,1].
	AILikelihood *float64
	// FinalScore is max(KeywordScore, round(AILikelihood*100)).
	FinalScore int
}

// Page is the result of fetching a candidate URL.
type Page struct {
	URL        string
	StatusCode int
	HTML       string
	Duration   time.Duration
}

// ContactRecord is a single extracted contact. Email is the dedup key.
type ContactRecord struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Designation string `json:"designation,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Department  string `json:"department,omitempty"`
	SourceURL   string `json:"source_url"`
	Method      string `json:"method"`
}

// DedupKey returns the normalized form of the email used for run-scoped
// deduplication.
func (c ContactRecord) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// URLScore is one entry of an AI scoring response.
type URLScore struct {
	URL        string  `json:"url"`
	Likelihood float64 `json:"likelihood"`
	Reason     string  `json:"reason"`
}

// Budgets holds the run-scoped ceilings shared by discovery and
// orchestration. Counters only ever decrement; exhaustion is a normal
// termination signal, never an error.
type Budgets struct {
	maxPages        int
	deepCrawlFetch  atomic.Int64
	aiBatchesIssued atomic.Int64
}

// NewBudgets initializes the run budgets.
func NewBudgets(maxPages, deepCrawlFetches int) *Budgets {
	b := &Budgets{maxPages: maxPages}
	b.deepCrawlFetch.Store(int64(deepCrawlFetches))
	return b
}

// MaxPages returns the final scrape-count ceiling.
func (b *Budgets) MaxPages() int { return b.maxPages }

// TakeDeepCrawlFetch consumes one discovery-phase fetch. It reports false
// once the budget is exhausted.
func (b *Budgets) TakeDeepCrawlFetch() bool {
	for {
		remaining := b.deepCrawlFetch.Load()
		if remaining <= 0 {
			return false
		}
		if b.deepCrawlFetch.CompareAndSwap(remaining, remaining-1) {
			return true
		}
	}
}

// DeepCrawlFetchesLeft reports the remaining discovery fetch budget.
func (b *Budgets) DeepCrawlFetchesLeft() int {
	return int(b.deepCrawlFetch.Load())
}

// NoteAIBatch records one AI scoring batch call for reporting.
func (b *Budgets) NoteAIBatch() { b.aiBatchesIssued.Add(1) }

// AIBatchesIssued returns the number of AI batch calls made so far.
func (b *Budgets) AIBatchesIssued() int { return int(b.aiBatchesIssued.Load()) }

// StatsSnapshot is a read-only view of run progress handed to observers.
type StatsSnapshot struct {
	RunID           string        `json:"run_id"`
	TargetURL       string        `json:"target_url"`
	Phase           string        `json:"phase"`
	URLsDiscovered  int           `json:"urls_discovered"`
	PagesPlanned    int           `json:"pages_planned"`
	PagesScraped    int           `json:"pages_scraped"`
	EmailsFound     int           `json:"emails_found"`
	DuplicateEmails int           `json:"duplicate_emails"`
	FetchErrors     int           `json:"fetch_errors"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	PagesPerSecond  float64       `json:"pages_per_second"`
}
