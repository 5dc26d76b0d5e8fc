// Package ranking implements the multi-stage ranking pipeline: embedding
// retrieval over the catalog index, pairwise reranking, auxiliary lexical and
// intent signals, weighted score fusion, and final top-k selection.
package ranking

import (
	"errors"
	"math"

	"github.com/hireloop/recommender/internal/catalog"
)

var (
	// ErrInvalidRequest is returned for caller mistakes: empty query text or
	// a non-positive k. Nothing is processed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingUnavailable is returned when the embedding capability is
	// unreachable or returns a malformed vector. Retrieval is a hard
	// prerequisite, so this is fatal for the query.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
)

// sentinelRerank marks a candidate whose pairwise scoring call failed. It is
// below every real score, so fusion and tie-breaking both disfavor it.
var sentinelRerank = math.Inf(-1)

// Candidate is the per-query working state for one catalog item surviving
// retrieval. The item reference is shared with the index and never mutated.
type Candidate struct {
	Item *catalog.Item

	// Pos is the item's catalog insertion position (deterministic tie-break).
	Pos int

	// Retrieval is the cosine similarity from the index search, in [-1, 1].
	Retrieval float64

	// Rerank is the pairwise relevance score; sentinelRerank until scored,
	// and left at the sentinel when the scoring call fails.
	Rerank float64

	// RerankOK reports whether the pairwise scoring call succeeded.
	RerankOK bool

	// Signals holds auxiliary signal scores by name, each in [0, 1].
	Signals map[string]float64

	// Fused is the final combined score assigned by the fusion stage.
	Fused float64
}

// ScoredItem pairs a catalog item with its final fused score.
type ScoredItem struct {
	Item  *catalog.Item
	Score float64
}

// RankedResult is the ordered output of a ranking request: at most k items,
// no duplicate IDs, descending by fused score.
type RankedResult struct {
	Results []ScoredItem
}
