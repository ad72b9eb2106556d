package orchestrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsZeroBeforeStart(t *testing.T) {
	t.Parallel()

	s := &Stats{}
	require.Zero(t, s.Elapsed())
	require.Zero(t, s.PagesPerSecond())
	require.Zero(t, s.PagesPlanned())
}

func TestStatsTracksProgress(t *testing.T) {
	t.Parallel()

	s := &Stats{}
	s.Start(12)
	s.pagesScraped.Add(3)
	s.emailsFound.Add(5)
	s.duplicateEmails.Add(1)
	s.fetchErrors.Add(2)

	require.Equal(t, 12, s.PagesPlanned())
	require.Equal(t, 3, s.PagesScraped())
	require.Equal(t, 5, s.EmailsFound())
	require.Equal(t, 1, s.DuplicateEmails())
	require.Equal(t, 2, s.FetchErrors())
	require.Greater(t, s.Elapsed().Nanoseconds(), int64(0))
	require.Greater(t, s.PagesPerSecond(), 0.0)
}
