package ranking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hireloop/recommender/internal/catalog"
	"github.com/hireloop/recommender/internal/index"
	"github.com/hireloop/recommender/internal/memory"
)

// stubEmbedder maps keywords to fixed unit vectors: java-ish text points at
// axis 0, people-ish text at axis 1, everything else at axis 2.
type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "java"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "teamwork") || strings.Contains(lower, "personality"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return 3 }
func (s *stubEmbedder) ModelName() string { return "stub" }

// stubScorer scores by keyword overlap and can be told to fail for specific
// candidate texts.
type stubScorer struct {
	mu      sync.Mutex
	failFor map[string]bool
	calls   int
}

func (s *stubScorer) Score(ctx context.Context, query, candidateText string) (float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.failFor[candidateText] {
		return 0, errors.New("scoring backend down")
	}

	score := 0.1
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(candidateText, tok) {
			score += 0.3
		}
	}
	return score, nil
}

func testCatalog() []*catalog.Item {
	return []*catalog.Item{
		{ID: "java-adv", Name: "Java Advanced", TestType: catalog.TypeKnowledge,
			Description: "advanced java programming", Embedding: []float32{1, 0, 0}},
		{ID: "java-entry", Name: "Java Entry Level", TestType: catalog.TypeKnowledge,
			Description: "basic java syntax", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "teamwork", Name: "Teamwork Styles", TestType: catalog.TypePersonality,
			Description: "teamwork and collaboration behavior", Embedding: []float32{0, 1, 0}},
		{ID: "misc", Name: "General Knowledge", TestType: catalog.TypeAbility,
			Description: "general aptitude", Embedding: []float32{0, 0, 1}},
	}
}

func newTestService(t *testing.T, emb *stubEmbedder, sc *stubScorer, opts ...ServiceOption) *Service {
	t.Helper()

	idx, err := index.Build(testCatalog())
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}

	fusion, err := NewFusionScorer(DefaultWeights())
	if err != nil {
		t.Fatalf("NewFusionScorer() error = %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	return NewService(
		index.NewHolder(idx),
		NewRetriever(emb, 0, logger),
		NewReranker(sc, 2, 0, logger),
		fusion,
		append(opts, WithLogger(logger))...,
	)
}

func TestRankReturnsRelevantItemsFirst(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubScorer{})

	result, err := svc.Rank(context.Background(), "senior java developer", 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(result.Results))
	}
	for i, r := range result.Results {
		if !strings.HasPrefix(r.Item.ID, "java") {
			t.Errorf("results[%d] = %s, want a java item", i, r.Item.ID)
		}
	}
}

func TestRankIdempotent(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubScorer{})

	first, err := svc.Rank(context.Background(), "teamwork and collaboration", 3)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Rank(context.Background(), "teamwork and collaboration", 3)
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if len(again.Results) != len(first.Results) {
			t.Fatalf("run %d returned %d results, want %d", i, len(again.Results), len(first.Results))
		}
		for j := range first.Results {
			if again.Results[j].Item.ID != first.Results[j].Item.ID {
				t.Errorf("run %d results[%d] = %s, want %s",
					i, j, again.Results[j].Item.ID, first.Results[j].Item.ID)
			}
		}
	}
}

func TestRankSurvivesScoringFailures(t *testing.T) {
	sc := &stubScorer{failFor: map[string]bool{
		(&catalog.Item{Name: "Java Advanced", Description: "advanced java programming"}).SearchText(): true,
	}}
	svc := newTestService(t, &stubEmbedder{}, sc)

	result, err := svc.Rank(context.Background(), "java developer", 4)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(result.Results))
	}

	// The failed item stays in the result set, just not boosted by rerank.
	found := false
	for _, r := range result.Results {
		if r.Item.ID == "java-adv" {
			found = true
		}
	}
	if !found {
		t.Error("candidate with failed scoring call was dropped entirely")
	}
}

func TestRankEmbeddingOutageIsFatal(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{err: errors.New("connection refused")}, &stubScorer{})

	_, err := svc.Rank(context.Background(), "java developer", 3)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Errorf("Rank() error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestRankRejectsBadRequests(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubScorer{})

	tests := []struct {
		name  string
		query string
		k     int
	}{
		{"empty query", "", 3},
		{"whitespace query", "   ", 3},
		{"zero k", "java", 0},
		{"negative k", "java", -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Rank(context.Background(), tt.query, tt.k)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Rank() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestRankKLargerThanCatalog(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubScorer{})

	result, err := svc.Rank(context.Background(), "java developer", 50)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(result.Results) != len(testCatalog()) {
		t.Errorf("len(results) = %d, want full catalog %d", len(result.Results), len(testCatalog()))
	}
}

func TestRankUsesCache(t *testing.T) {
	sc := &stubScorer{}
	cache := memory.NewCache[*RankedResult](10, time.Hour)
	svc := newTestService(t, &stubEmbedder{}, sc, WithCache(cache))

	if _, err := svc.Rank(context.Background(), "java developer", 2); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	callsAfterFirst := sc.calls

	if _, err := svc.Rank(context.Background(), "java developer", 2); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if sc.calls != callsAfterFirst {
		t.Errorf("second identical query hit the scorer (%d -> %d calls)", callsAfterFirst, sc.calls)
	}

	// Different k misses the cache.
	if _, err := svc.Rank(context.Background(), "java developer", 3); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if sc.calls == callsAfterFirst {
		t.Error("different k should not be served from cache")
	}
}

func TestSwapIndexInvalidatesCache(t *testing.T) {
	sc := &stubScorer{}
	cache := memory.NewCache[*RankedResult](10, time.Hour)
	svc := newTestService(t, &stubEmbedder{}, sc, WithCache(cache))

	if _, err := svc.Rank(context.Background(), "java developer", 2); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if cache.Len() == 0 {
		t.Fatal("expected cached result")
	}

	idx, err := index.Build(testCatalog()[:2])
	if err != nil {
		t.Fatalf("index.Build() error = %v", err)
	}
	svc.SwapIndex(idx)

	if cache.Len() != 0 {
		t.Errorf("cache.Len() after swap = %d, want 0", cache.Len())
	}
}

type stubFetcher struct {
	text string
	err  error
}

func (f *stubFetcher) FetchText(ctx context.Context, url string) (string, error) {
	return f.text, f.err
}

func TestRankURL(t *testing.T) {
	svc := newTestService(t, &stubEmbedder{}, &stubScorer{},
		WithPageFetcher(&stubFetcher{text: "we are hiring a java developer"}))

	result, err := svc.RankURL(context.Background(), "https://example.com/jd", 2)
	if err != nil {
		t.Fatalf("RankURL() error = %v", err)
	}
	if result.Results[0].Item.ID != "java-adv" && result.Results[0].Item.ID != "java-entry" {
		t.Errorf("top result = %s, want a java item", result.Results[0].Item.ID)
	}
}

func TestRankURLErrors(t *testing.T) {
	t.Run("fetcher disabled", func(t *testing.T) {
		svc := newTestService(t, &stubEmbedder{}, &stubScorer{})
		if _, err := svc.RankURL(context.Background(), "https://example.com", 2); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("empty page", func(t *testing.T) {
		svc := newTestService(t, &stubEmbedder{}, &stubScorer{}, WithPageFetcher(&stubFetcher{text: "  "}))
		if _, err := svc.RankURL(context.Background(), "https://example.com", 2); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		svc := newTestService(t, &stubEmbedder{}, &stubScorer{},
			WithPageFetcher(&stubFetcher{err: errors.New("timeout")}))
		if _, err := svc.RankURL(context.Background(), "https://example.com", 2); err == nil {
			t.Error("expected error from failed fetch")
		}
	})
}
