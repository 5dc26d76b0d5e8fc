package ranking

import (
	"fmt"
	"sort"
)

// Ranker turns fused candidates into the final ordered result: sort,
// deduplicate, truncate. It is pure and deterministic.
type Ranker struct{}

// Select sorts candidates by descending fused score, breaking ties first by
// higher raw rerank score and then by catalog insertion order. Duplicate item
// IDs keep only the highest-ranked occurrence. The result holds the first
// min(k, candidates) entries.
func (Ranker) Select(candidates []Candidate, k int) (*RankedResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidRequest, k)
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Fused != sorted[j].Fused {
			return sorted[i].Fused > sorted[j].Fused
		}
		// Sentinel rerank scores lose this tie-break against any real score.
		if sorted[i].Rerank != sorted[j].Rerank {
			return sorted[i].Rerank > sorted[j].Rerank
		}
		return sorted[i].Pos < sorted[j].Pos
	})

	seen := make(map[string]struct{}, len(sorted))
	results := make([]ScoredItem, 0, min(k, len(sorted)))
	for _, c := range sorted {
		if len(results) == k {
			break
		}
		if _, dup := seen[c.Item.ID]; dup {
			continue
		}
		seen[c.Item.ID] = struct{}{}
		results = append(results, ScoredItem{Item: c.Item, Score: c.Fused})
	}

	return &RankedResult{Results: results}, nil
}
