package orchestrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// totalPagesScraped counts pages processed by the scrape pool.
	totalPagesScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_pages_scraped_total",
		Help: "The total number of candidate pages processed.",
	})
	// totalFetchErrors counts pages that failed permanently.
	totalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_fetch_errors_total",
		Help: "The total number of pages that exhausted retries or failed permanently.",
	})
	// totalFetchRetries counts retry attempts issued for transient failures.
	totalFetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_fetch_retries_total",
		Help: "The total number of fetch retries after transient failures.",
	})
	// totalEmailsFound counts retained contact records.
	totalEmailsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_emails_found_total",
		Help: "The total number of deduplicated contact records retained.",
	})
	// totalDuplicateEmails counts contacts dropped by email deduplication.
	totalDuplicateEmails = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_duplicate_emails_total",
		Help: "The total number of contact records discarded as duplicates.",
	})
)
