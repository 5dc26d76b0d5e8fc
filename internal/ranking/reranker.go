package ranking

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hireloop/recommender/internal/scorer"
)

const (
	// DefaultRerankConcurrency bounds concurrent pairwise scoring calls so a
	// large candidate pool does not overwhelm the scoring backend.
	DefaultRerankConcurrency = 8

	// DefaultScoreTimeout bounds a single pairwise scoring call.
	DefaultScoreTimeout = 20 * time.Second
)

// Reranker assigns a pairwise relevance score to every candidate. Candidates
// are independent, so scoring fans out concurrently up to the configured
// limit. A failed call leaves the sentinel score in place and is logged;
// one model error never aborts the query.
type Reranker struct {
	scorer      scorer.Scorer
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewReranker creates a reranker over the given pairwise scoring capability.
func NewReranker(sc scorer.Scorer, concurrency int, timeout time.Duration, logger *slog.Logger) *Reranker {
	if concurrency <= 0 {
		concurrency = DefaultRerankConcurrency
	}
	if timeout <= 0 {
		timeout = DefaultScoreTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{scorer: sc, concurrency: concurrency, timeout: timeout, logger: logger}
}

// Rerank populates the rerank score of every candidate in place. Invocation
// order does not affect results. It returns the number of candidates whose
// scoring call failed.
//
// When the scorer supports batch scoring, the whole pool is scored in one
// call first; the concurrent per-pair fan-out is the fallback.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate) int {
	if len(candidates) == 0 {
		return 0
	}

	if bs, ok := r.scorer.(scorer.BatchScorer); ok {
		if r.rerankBatch(ctx, bs, query, candidates) {
			return 0
		}
	}

	g := &errgroup.Group{}
	g.SetLimit(r.concurrency)

	failed := make([]bool, len(candidates))
	for i := range candidates {
		g.Go(func() error {
			c := &candidates[i]

			scoreCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			score, err := r.scorer.Score(scoreCtx, query, c.Item.SearchText())
			if err != nil {
				// Sentinel stays; failure is recovered locally.
				failed[i] = true
				r.logger.Warn("pairwise scoring failed, keeping sentinel score",
					"item_id", c.Item.ID,
					"error", err,
				)
				return nil
			}

			c.Rerank = score
			c.RerankOK = true
			return nil
		})
	}

	// Workers never return errors; failures are per-candidate.
	_ = g.Wait()

	failures := 0
	for _, f := range failed {
		if f {
			failures++
		}
	}
	return failures
}

// rerankBatch scores the whole pool in one call. Reports whether it
// succeeded; on failure the candidates are untouched.
func (r *Reranker) rerankBatch(ctx context.Context, bs scorer.BatchScorer, query string, candidates []Candidate) bool {
	// One call covers the whole pool, so it gets double the per-call budget.
	batchCtx, cancel := context.WithTimeout(ctx, r.timeout*2)
	defer cancel()

	texts := make([]string, len(candidates))
	for i := range candidates {
		texts[i] = candidates[i].Item.SearchText()
	}

	scores, err := bs.ScoreBatch(batchCtx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		r.logger.Warn("batch scoring failed, falling back to per-candidate calls", "error", err)
		return false
	}

	for i := range candidates {
		candidates[i].Rerank = scores[i]
		candidates[i].RerankOK = true
	}
	return true
}
