package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

type fakeURLScorer struct {
	mu      sync.Mutex
	batches [][]string
	scores  map[string]float64
	err     error
}

func (f *fakeURLScorer) ScoreURLs(_ context.Context, urls []string) ([]harvest.URLScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]string, len(urls))
	copy(batch, urls)
	f.batches = append(f.batches, batch)
	if f.err != nil {
		return nil, f.err
	}
	var out []harvest.URLScore
	for _, u := range urls {
		if l, ok := f.scores[u]; ok {
			out = append(out, harvest.URLScore{URL: u, Likelihood: l, Reason: "test"})
		}
	}
	return out, nil
}

func candidates(urls ...string) []harvest.CandidateURL {
	out := make([]harvest.CandidateURL, len(urls))
	for i, u := range urls {
		out[i] = harvest.CandidateURL{URL: u, Source: harvest.SourcePattern, Seq: int64(i + 1)}
	}
	return out
}

func TestRankHighConfidenceSkipsAI(t *testing.T) {
	t.Parallel()

	ai := &fakeURLScorer{scores: map[string]float64{}}
	s := New(ai, harvest.NewBudgets(10, 0), zap.NewNop())

	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/contact",
		"https://example.edu/staff",
		"https://example.edu/about",
	), 10)

	require.Len(t, ranked, 3)
	// All three score at or above the threshold, so no batch is issued.
	require.Empty(t, ai.batches)
	for _, c := range ranked {
		require.Nil(t, c.AILikelihood)
		require.Equal(t, c.KeywordScore, c.FinalScore)
	}
}

func TestRankSendsSubThresholdToAI(t *testing.T) {
	t.Parallel()

	ai := &fakeURLScorer{scores: map[string]float64{
		"https://example.edu/news":       0.15,
		"https://example.edu/jane-smith": 0.92,
	}}
	budgets := harvest.NewBudgets(10, 0)
	s := New(ai, budgets, zap.NewNop())

	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/contact",    // 100, skipped
		"https://example.edu/news",       // 0, refined
		"https://example.edu/jane-smith", // 0, refined
	), 10)

	require.Len(t, ai.batches, 1)
	require.ElementsMatch(t, []string{
		"https://example.edu/news",
		"https://example.edu/jane-smith",
	}, ai.batches[0])
	require.Equal(t, 1, budgets.AIBatchesIssued())

	byURL := make(map[string]harvest.CandidateURL)
	for _, c := range ranked {
		byURL[c.URL] = c
	}
	require.Equal(t, 100, byURL["https://example.edu/contact"].FinalScore)
	require.Equal(t, 15, byURL["https://example.edu/news"].FinalScore)
	require.Equal(t, 92, byURL["https://example.edu/jane-smith"].FinalScore)
	require.NotNil(t, byURL["https://example.edu/news"].AILikelihood)
	require.InDelta(t, 0.15, *byURL["https://example.edu/news"].AILikelihood, 1e-9)
}

func TestRankFinalScoreIsMaxOfKeywordAndAI(t *testing.T) {
	t.Parallel()

	// Keyword score 40, AI likelihood 0.2 => final stays 40.
	ai := &fakeURLScorer{scores: map[string]float64{"https://example.edu/support": 0.2}}
	s := New(ai, harvest.NewBudgets(10, 0), zap.NewNop())

	ranked := s.Rank(context.Background(), candidates("https://example.edu/support"), 10)
	require.Len(t, ranked, 1)
	require.Equal(t, 40, ranked[0].FinalScore)
	require.NotNil(t, ranked[0].AILikelihood)
}

func TestRankDegradesWholeBatchOnAIError(t *testing.T) {
	t.Parallel()

	ai := &fakeURLScorer{err: errors.New("upstream 500")}
	s := New(ai, harvest.NewBudgets(10, 0), zap.NewNop())

	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/news",
		"https://example.edu/events",
	), 10)

	require.Len(t, ai.batches, 1)
	for _, c := range ranked {
		require.Nil(t, c.AILikelihood)
		require.Equal(t, c.KeywordScore, c.FinalScore)
	}
}

func TestRankRejectsOutOfRangeLikelihood(t *testing.T) {
	t.Parallel()

	ai := &fakeURLScorer{scores: map[string]float64{
		"https://example.edu/news":   1.7,
		"https://example.edu/events": 0.5,
	}}
	s := New(ai, harvest.NewBudgets(10, 0), zap.NewNop())

	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/news",
		"https://example.edu/events",
	), 10)

	// One bad entry poisons the batch; both keep keyword scores.
	for _, c := range ranked {
		require.Nil(t, c.AILikelihood)
		require.Equal(t, c.KeywordScore, c.FinalScore)
	}
}

func TestRankRejectsUnknownURLInResponse(t *testing.T) {
	t.Parallel()

	urls := []string{"https://example.edu/news"}
	scores := []harvest.URLScore{{URL: "https://evil.example/other", Likelihood: 0.5}}
	_, ok := collectLikelihoods(urls, scores)
	require.False(t, ok)
}

func TestRankBatchesOfFifty(t *testing.T) {
	t.Parallel()

	urls := make([]string, 120)
	scores := make(map[string]float64, 120)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.edu/page-%03d", i)
		scores[urls[i]] = 0.5
	}
	ai := &fakeURLScorer{scores: scores}
	budgets := harvest.NewBudgets(200, 0)
	s := New(ai, budgets, zap.NewNop())

	s.Rank(context.Background(), candidates(urls...), 200)

	require.Len(t, ai.batches, 3)
	require.Len(t, ai.batches[0], 50)
	require.Len(t, ai.batches[1], 50)
	require.Len(t, ai.batches[2], 20)
	require.Equal(t, 3, budgets.AIBatchesIssued())
}

func TestRankSortsAndTruncates(t *testing.T) {
	t.Parallel()

	s := New(nil, harvest.NewBudgets(2, 0), zap.NewNop())

	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/news",    // 0
		"https://example.edu/contact", // 100
		"https://example.edu/staff",   // 80
	), 2)

	require.Len(t, ranked, 2)
	require.Equal(t, "https://example.edu/contact", ranked[0].URL)
	require.Equal(t, "https://example.edu/staff", ranked[1].URL)
}

func TestRankTieBreaksByDiscoveryOrder(t *testing.T) {
	t.Parallel()

	s := New(nil, harvest.NewBudgets(10, 0), zap.NewNop())

	// Both score 100; the earlier sequence number must come first.
	ranked := s.Rank(context.Background(), candidates(
		"https://example.edu/contact",
		"https://example.edu/directory",
	), 10)

	require.Equal(t, "https://example.edu/contact", ranked[0].URL)
	require.Equal(t, "https://example.edu/directory", ranked[1].URL)
}

func TestRankNilScorerKeepsKeywordScores(t *testing.T) {
	t.Parallel()

	s := New(nil, harvest.NewBudgets(10, 0), zap.NewNop())
	ranked := s.Rank(context.Background(), candidates("https://example.edu/news"), 10)
	require.Len(t, ranked, 1)
	require.Equal(t, 0, ranked[0].FinalScore)
	require.Nil(t, ranked[0].AILikelihood)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := candidates("https://example.edu/contact")
	s := New(nil, harvest.NewBudgets(10, 0), zap.NewNop())
	s.Rank(context.Background(), input, 10)
	require.Equal(t, 0, input[0].FinalScore)
}
