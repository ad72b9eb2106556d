package scoring

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sitescout/harvester/internal/harvest"
)

// Scorer assigns final scores to discovered candidates and produces the
// ranked, truncated scrape list.
type Scorer struct {
	ai      harvest.URLScorer
	budgets *harvest.Budgets
	logger  *zap.Logger
}

// New builds a Scorer. A nil URLScorer disables the refinement pass and
// every candidate keeps its keyword score.
func New(ai harvest.URLScorer, budgets *harvest.Budgets, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{ai: ai, budgets: budgets, logger: logger}
}

// Rank scores every candidate and returns the final scrape list: sorted by
// final score descending with discovery sequence as the stable tie-break,
// truncated to maxPages. Candidates at or above the high-confidence keyword
// threshold are finalized immediately; the rest go to the AI scorer in
// batches. A failed batch degrades to keyword scores and the run continues.
func (s *Scorer) Rank(ctx context.Context, candidates []harvest.CandidateURL, maxPages int) []harvest.CandidateURL {
	ranked := make([]harvest.CandidateURL, len(candidates))
	copy(ranked, candidates)

	var uncertain []int
	for i := range ranked {
		ranked[i].KeywordScore = KeywordScore(ranked[i].URL)
		ranked[i].FinalScore = ranked[i].KeywordScore
		if ranked[i].KeywordScore < HighConfidenceThreshold {
			uncertain = append(uncertain, i)
		}
	}

	if s.ai != nil {
		s.refine(ctx, ranked, uncertain)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].Seq < ranked[j].Seq
	})

	if maxPages > 0 && len(ranked) > maxPages {
		ranked = ranked[:maxPages]
	}
	return ranked
}

// refine sends sub-threshold candidates to the AI scorer in fixed-size
// batches and folds the likelihoods into the final scores.
func (s *Scorer) refine(ctx context.Context, ranked []harvest.CandidateURL, uncertain []int) {
	for batchNum, start := 0, 0; start < len(uncertain); batchNum, start = batchNum+1, start+harvest.AIBatchSize {
		end := start + harvest.AIBatchSize
		if end > len(uncertain) {
			end = len(uncertain)
		}
		batch := uncertain[start:end]

		urls := make([]string, len(batch))
		for i, idx := range batch {
			urls[i] = ranked[idx].URL
		}

		s.budgets.NoteAIBatch()
		scores, err := s.ai.ScoreURLs(ctx, urls)
		if err != nil {
			aiErr := &harvest.AIServiceError{Batch: batchNum, Err: err}
			s.logger.Warn("ai batch degraded to keyword scores",
				zap.Int("batch", batchNum),
				zap.Int("urls", len(urls)),
				zap.Error(aiErr),
			)
			continue
		}

		likelihoods, ok := collectLikelihoods(urls, scores)
		if !ok {
			s.logger.Warn("ai batch response malformed, keeping keyword scores",
				zap.Int("batch", batchNum),
				zap.Int("urls", len(urls)),
			)
			continue
		}

		for _, idx := range batch {
			likelihood, found := likelihoods[ranked[idx].URL]
			if !found {
				continue
			}
			l := likelihood
			ranked[idx].AILikelihood = &l
			if aiScore := int(math.Round(l * 100)); aiScore > ranked[idx].FinalScore {
				ranked[idx].FinalScore = aiScore
			}
		}
	}
}

// collectLikelihoods validates a batch response against the request. Any
// out-of-range likelihood or entry for an unknown URL poisons the whole
// batch; partial silent parses are not allowed.
func collectLikelihoods(urls []string, scores []harvest.URLScore) (map[string]float64, bool) {
	requested := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		requested[u] = struct{}{}
	}
	out := make(map[string]float64, len(scores))
	for _, score := range scores {
		if _, ok := requested[score.URL]; !ok {
			return nil, false
		}
		if score.Likelihood < 0 || score.Likelihood > 1 {
			return nil, false
		}
		if _, dup := out[score.URL]; !dup {
			out[score.URL] = score.Likelihood
		}
	}
	return out, true
}
