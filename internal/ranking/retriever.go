package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hireloop/recommender/internal/embedder"
	"github.com/hireloop/recommender/internal/index"
)

// DefaultEmbedTimeout bounds the query embedding call.
const DefaultEmbedTimeout = 10 * time.Second

// Retriever embeds a query once and pulls the candidate pool from the index.
type Retriever struct {
	embedder embedder.Embedder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRetriever creates a retriever over the given embedding capability.
func NewRetriever(emb embedder.Embedder, timeout time.Duration, logger *slog.Logger) *Retriever {
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: emb, timeout: timeout, logger: logger}
}

// Retrieve embeds query exactly once and returns the poolSize nearest
// catalog items as candidates, in descending similarity order. Any embedding
// failure, dimension mismatch, or non-finite component is fatal for the
// query and reported as ErrEmbeddingUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, idx index.Searcher, query string, poolSize int) ([]Candidate, error) {
	embedCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vector, err := r.embedder.Embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(vector) != idx.Dimension() {
		return nil, fmt.Errorf("%w: embedding has dimension %d, index expects %d",
			ErrEmbeddingUnavailable, len(vector), idx.Dimension())
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite value at component %d", ErrEmbeddingUnavailable, i)
		}
	}

	hits, err := idx.Search(ctx, vector, poolSize)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	candidates := make([]Candidate, len(hits))
	for i, hit := range hits {
		candidates[i] = Candidate{
			Item:      hit.Item,
			Pos:       hit.Pos,
			Retrieval: hit.Score,
			Rerank:    sentinelRerank,
		}
	}

	r.logger.Debug("retrieved candidate pool",
		"pool_size", len(candidates),
		"requested", poolSize,
	)

	return candidates, nil
}
