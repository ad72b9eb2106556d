package harvest

import "context"

// Fetcher retrieves a single page. Implementations handle network-level
// concerns (proxying, connection reuse); callers apply their own bounded
// retry on transient errors only.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// URLScorer assigns contact-page likelihoods to a batch of URLs. A batch
// never exceeds AIBatchSize entries. Any schema violation in the response
// must surface as an error for the whole batch.
type URLScorer interface {
	ScoreURLs(ctx context.Context, urls []string) ([]URLScore, error)
}

// ContactExtractor pulls contact records out of fetched HTML. Failures are
// isolated to the single page.
type ContactExtractor interface {
	Extract(html, sourceURL string) []ContactRecord
}

// ResultSink receives the final deduplicated records and run stats.
type ResultSink interface {
	Write(contacts []ContactRecord, stats StatsSnapshot) error
}

// ProgressObserver exposes a pull-based snapshot of run progress.
type ProgressObserver interface {
	Snapshot() StatsSnapshot
}

// AIBatchSize is the fixed URL count per scoring request.
const AIBatchSize = 50
