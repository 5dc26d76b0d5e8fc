// Package scorer provides pairwise query-document relevance scoring.
//
// Scoring evaluates the query and a candidate's text together,
// cross-encoder style, which is more accurate than independent embedding
// similarity but far more expensive. The reranking stage calls it once per
// candidate, so implementations must be safe for concurrent use.
package scorer

import "context"

// Scorer defines the pairwise relevance capability.
//
// Higher scores mean more relevant. The scale need not be bounded; the
// fusion stage normalizes scores over the candidate pool.
type Scorer interface {
	Score(ctx context.Context, query, candidateText string) (float64, error)
}
