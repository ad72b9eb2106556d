package orchestrate

import (
	"sync/atomic"
	"time"
)

// Stats tracks scrape-phase progress. All counters are updated atomically so
// workers never contend on a lock for bookkeeping.
type Stats struct {
	pagesPlanned    atomic.Int64
	pagesScraped    atomic.Int64
	emailsFound     atomic.Int64
	duplicateEmails atomic.Int64
	fetchErrors     atomic.Int64
	started         atomic.Int64
}

// Start records the scrape start time and the planned page count.
func (s *Stats) Start(planned int) {
	s.pagesPlanned.Store(int64(planned))
	s.started.Store(time.Now().UnixNano())
}

// PagesPlanned returns the size of the final scrape list.
func (s *Stats) PagesPlanned() int { return int(s.pagesPlanned.Load()) }

// PagesScraped returns the number of pages processed so far, successful or not.
func (s *Stats) PagesScraped() int { return int(s.pagesScraped.Load()) }

// EmailsFound returns the count of retained, deduplicated contacts.
func (s *Stats) EmailsFound() int { return int(s.emailsFound.Load()) }

// DuplicateEmails returns how many extracted contacts were discarded as
// duplicates of an earlier email.
func (s *Stats) DuplicateEmails() int { return int(s.duplicateEmails.Load()) }

// FetchErrors returns the count of permanently failed pages.
func (s *Stats) FetchErrors() int { return int(s.fetchErrors.Load()) }

// Elapsed returns time since Start, or zero before the scrape begins.
func (s *Stats) Elapsed() time.Duration {
	started := s.started.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}

// PagesPerSecond returns current scrape throughput.
func (s *Stats) PagesPerSecond() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.PagesScraped()) / elapsed
}
