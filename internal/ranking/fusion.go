package ranking

import (
	"fmt"
)

// Weights is the fusion weight vector. Only the ratios matter, not the
// absolute scale. It is the tuning surface that produced the recall
// improvements: start from retrieval-only (zero everything else), enable
// rerank, then enable the auxiliary signals, varying one weight at a time.
type Weights struct {
	Retrieval float64
	Rerank    float64
	Lexical   float64
	Intent    float64
	Boost     float64
}

// DefaultWeights reflects the tuned production configuration: rerank
// dominates, retrieval anchors, and the auxiliary signals nudge.
func DefaultWeights() Weights {
	return Weights{
		Retrieval: 0.4,
		Rerank:    0.6,
		Lexical:   0.06,
		Intent:    0.04,
		Boost:     0.10,
	}
}

// Validate rejects weight vectors that cannot produce a meaningful ordering.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"retrieval": w.Retrieval,
		"rerank":    w.Rerank,
		"lexical":   w.Lexical,
		"intent":    w.Intent,
		"boost":     w.Boost,
	} {
		if v < 0 {
			return fmt.Errorf("fusion weight %s is negative: %v", name, v)
		}
	}
	if w.Retrieval+w.Rerank+w.Lexical+w.Intent+w.Boost == 0 {
		return fmt.Errorf("all fusion weights are zero")
	}
	return nil
}

// FusionScorer combines retrieval similarity, rerank score, and auxiliary
// signals into one final score per candidate.
//
// Normalization is fixed and applied consistently:
//   - retrieval cosine is mapped from [-1,1] to [0,1] linearly, so it is
//     comparable across queries;
//   - rerank scores (unbounded) are min-max normalized over the successfully
//     scored candidates of the current pool, matching how the cross-encoder
//     scores were normalized when the weights were tuned; when every scored
//     candidate has the same value they all get 1.0;
//   - candidates whose scoring call failed get 0, the floor of the rerank
//     contribution.
//
// Fusion is pure: no randomness, no external calls, identical inputs yield
// identical scores.
type FusionScorer struct {
	weights Weights
}

// NewFusionScorer creates a fusion scorer with the given weights.
func NewFusionScorer(w Weights) (*FusionScorer, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fusion weights: %w", err)
	}
	return &FusionScorer{weights: w}, nil
}

// Weights returns the configured weight vector.
func (f *FusionScorer) Weights() Weights {
	return f.weights
}

// Fuse assigns the final fused score to every candidate in the pool.
func (f *FusionScorer) Fuse(candidates []Candidate) {
	if len(candidates) == 0 {
		return
	}

	rerankMin, rerankMax, anyScored := rerankRange(candidates)

	for i := range candidates {
		c := &candidates[i]

		retrieval := clamp01((c.Retrieval + 1.0) / 2.0)

		var rerank float64
		if c.RerankOK && anyScored {
			if rerankMax > rerankMin {
				rerank = (c.Rerank - rerankMin) / (rerankMax - rerankMin)
			} else {
				rerank = 1.0
			}
		}

		fused := f.weights.Retrieval*retrieval + f.weights.Rerank*rerank
		fused += f.weights.Lexical * c.Signals[SignalLexical]
		fused += f.weights.Intent * c.Signals[SignalIntent]
		fused += f.weights.Boost * c.Signals[SignalBoost]

		c.Fused = fused
	}
}

// rerankRange returns the min and max rerank score over successfully scored
// candidates.
func rerankRange(candidates []Candidate) (min, max float64, anyScored bool) {
	for _, c := range candidates {
		if !c.RerankOK {
			continue
		}
		if !anyScored || c.Rerank < min {
			min = c.Rerank
		}
		if !anyScored || c.Rerank > max {
			max = c.Rerank
		}
		anyScored = true
	}
	return min, max, anyScored
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
