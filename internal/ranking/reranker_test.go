package ranking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/hireloop/recommender/internal/catalog"
)

// countingScorer tracks concurrent in-flight calls.
type countingScorer struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	fail     bool
}

func (s *countingScorer) Score(ctx context.Context, query, candidateText string) (float64, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.fail {
		return 0, errors.New("backend down")
	}
	return float64(len(candidateText)), nil
}

func rerankPool(n int) []Candidate {
	candidates := make([]Candidate, n)
	for i := range candidates {
		candidates[i] = Candidate{
			Item:   &catalog.Item{ID: string(rune('a' + i)), Name: "Item", Description: "text"},
			Pos:    i,
			Rerank: sentinelRerank,
		}
	}
	return candidates
}

func TestRerankScoresEveryCandidate(t *testing.T) {
	sc := &countingScorer{}
	r := NewReranker(sc, 4, 0, slog.New(slog.DiscardHandler))

	candidates := rerankPool(10)
	failed := r.Rerank(context.Background(), "query", candidates)

	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	for i, c := range candidates {
		if !c.RerankOK {
			t.Errorf("candidate %d not scored", i)
		}
		if c.Rerank == sentinelRerank {
			t.Errorf("candidate %d kept sentinel score", i)
		}
	}
}

func TestRerankBoundsConcurrency(t *testing.T) {
	sc := &countingScorer{}
	r := NewReranker(sc, 3, 0, slog.New(slog.DiscardHandler))

	r.Rerank(context.Background(), "query", rerankPool(20))

	if sc.peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", sc.peak)
	}
}

func TestRerankAllFailuresKeepSentinels(t *testing.T) {
	sc := &countingScorer{fail: true}
	r := NewReranker(sc, 2, 0, slog.New(slog.DiscardHandler))

	candidates := rerankPool(5)
	failed := r.Rerank(context.Background(), "query", candidates)

	if failed != 5 {
		t.Errorf("failed = %d, want 5", failed)
	}
	for i, c := range candidates {
		if c.RerankOK {
			t.Errorf("candidate %d marked scored despite failure", i)
		}
		if c.Rerank != sentinelRerank {
			t.Errorf("candidate %d score = %v, want sentinel", i, c.Rerank)
		}
	}
}

func TestRerankEmptyPool(t *testing.T) {
	r := NewReranker(&countingScorer{}, 2, 0, slog.New(slog.DiscardHandler))
	if failed := r.Rerank(context.Background(), "query", nil); failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
}

// batchScorer implements both the per-pair and the batch contract.
type batchScorer struct {
	countingScorer
	batchErr   error
	batchCalls int
}

func (s *batchScorer) ScoreBatch(ctx context.Context, query string, candidateTexts []string) ([]float64, error) {
	s.batchCalls++
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	scores := make([]float64, len(candidateTexts))
	for i := range scores {
		scores[i] = float64(i) / 10
	}
	return scores, nil
}

func TestRerankPrefersBatchScoring(t *testing.T) {
	sc := &batchScorer{}
	r := NewReranker(sc, 4, 0, slog.New(slog.DiscardHandler))

	candidates := rerankPool(5)
	failed := r.Rerank(context.Background(), "query", candidates)

	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if sc.batchCalls != 1 {
		t.Errorf("batchCalls = %d, want 1", sc.batchCalls)
	}
	if sc.peak != 0 {
		t.Error("per-pair scorer was called despite batch success")
	}
	for i, c := range candidates {
		if !c.RerankOK || c.Rerank != float64(i)/10 {
			t.Errorf("candidate %d = %v/%v, want batch score", i, c.Rerank, c.RerankOK)
		}
	}
}

func TestRerankFallsBackWhenBatchFails(t *testing.T) {
	sc := &batchScorer{batchErr: errors.New("context window exceeded")}
	r := NewReranker(sc, 4, 0, slog.New(slog.DiscardHandler))

	candidates := rerankPool(5)
	failed := r.Rerank(context.Background(), "query", candidates)

	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	for i, c := range candidates {
		if !c.RerankOK {
			t.Errorf("candidate %d not scored by fallback", i)
		}
	}
}
