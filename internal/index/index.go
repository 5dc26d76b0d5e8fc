// Package index provides similarity search over the catalog embedding space.
//
// The default implementation is an exact in-memory cosine index; at catalog
// scale (a few thousand items) exact search is faster than any approximate
// structure would pay for. A Qdrant-backed implementation of the same
// contract exists for catalogs that outgrow a single process.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hireloop/recommender/internal/catalog"
)

var (
	// ErrEmptyCatalog is returned when building an index from zero items.
	ErrEmptyCatalog = errors.New("empty catalog")

	// ErrDimensionMismatch is returned when item embeddings disagree on
	// dimensionality, or a query vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Hit is a single similarity match.
type Hit struct {
	// Item is a read-only reference shared with the index; callers must not
	// mutate it.
	Item *catalog.Item

	// Score is the cosine similarity to the query vector, in [-1, 1].
	Score float64

	// Pos is the item's catalog insertion position, used downstream for
	// deterministic tie-breaking.
	Pos int
}

// Searcher is the similarity lookup contract shared by the exact in-memory
// index and the Qdrant-backed one. Implementations must return hits sorted
// by descending similarity, ties broken by catalog insertion order.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topN int) ([]Hit, error)
	Dimension() int
	Len() int
}

// Index is an exact in-memory cosine index over the catalog. It is immutable
// after Build and safe for concurrent reads without locking.
type Index struct {
	items     []*catalog.Item
	vectors   [][]float32 // L2-normalized copies of item embeddings
	dimension int
}

// Build constructs an index from the given items. Every item must carry an
// embedding of the same dimensionality. Embeddings are L2-normalized into
// private copies so that dot product equals cosine similarity.
func Build(items []*catalog.Item) (*Index, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	dimension := len(items[0].Embedding)
	if dimension == 0 {
		return nil, fmt.Errorf("%w: item %s has no embedding", ErrDimensionMismatch, items[0].ID)
	}

	vectors := make([][]float32, len(items))
	for i, it := range items {
		if len(it.Embedding) != dimension {
			return nil, fmt.Errorf("%w: item %s has dimension %d, want %d",
				ErrDimensionMismatch, it.ID, len(it.Embedding), dimension)
		}
		vectors[i] = normalize(it.Embedding)
	}

	return &Index{
		items:     items,
		vectors:   vectors,
		dimension: dimension,
	}, nil
}

// Search returns the topN items most similar to the query vector, sorted by
// descending cosine similarity with ties broken by catalog insertion order.
// topN greater than the catalog size returns the full catalog.
func (idx *Index) Search(ctx context.Context, vector []float32, topN int) ([]Hit, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}
	if topN <= 0 {
		return nil, fmt.Errorf("topN must be positive, got %d", topN)
	}
	if topN > len(idx.items) {
		topN = len(idx.items)
	}

	query := normalize(vector)

	hits := make([]Hit, len(idx.items))
	for i, vec := range idx.vectors {
		hits[i] = Hit{
			Item:  idx.items[i],
			Score: dot(query, vec),
			Pos:   i,
		}
	}

	// Hits start in insertion order, so a stable sort by score keeps
	// insertion order for equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	return hits[:topN], nil
}

// Dimension returns the embedding dimensionality of the index.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Len returns the number of indexed items.
func (idx *Index) Len() int {
	return len(idx.items)
}

// normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged rather than dividing by zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the dot product in float64 for stable, reproducible scores.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Ensure Index implements Searcher
var _ Searcher = (*Index)(nil)
