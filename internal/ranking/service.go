package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hireloop/recommender/internal/index"
)

const (
	// DefaultPoolFloor is the minimum candidate pool pulled from the index,
	// regardless of k. Reranking a pool this size keeps recall stable while
	// staying cheap enough for the scoring backend.
	DefaultPoolFloor = 40

	// poolMultiplier scales the pool with k so large requests still rerank a
	// meaningful over-fetch.
	poolMultiplier = 10
)

// PageFetcher extracts readable text from a web page, used when callers pass
// a job-description URL instead of query text.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ResultCache caches ranked results keyed by normalized query and k.
type ResultCache interface {
	Get(key string) (*RankedResult, bool)
	Put(key string, value *RankedResult)
	Invalidate()
}

// Service runs the full ranking pipeline for one query: retrieve a candidate
// pool from the current index snapshot, score candidates pairwise, extract
// auxiliary signals, fuse, and select the top k.
type Service struct {
	holder    *index.Holder
	retriever *Retriever
	reranker  *Reranker
	extractor *SignalExtractor
	fusion    *FusionScorer
	ranker    Ranker

	cache   ResultCache
	fetcher PageFetcher
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache enables result caching. Identical queries against an unchanged
// index return the cached ordering.
func WithCache(c ResultCache) ServiceOption {
	return func(s *Service) {
		s.cache = c
	}
}

// WithPageFetcher enables RankURL, ranking against text extracted from a
// job-description page.
func WithPageFetcher(f PageFetcher) ServiceOption {
	return func(s *Service) {
		s.fetcher = f
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires the pipeline stages around the given index holder.
func NewService(holder *index.Holder, retriever *Retriever, reranker *Reranker, fusion *FusionScorer, opts ...ServiceOption) *Service {
	s := &Service{
		holder:    holder,
		retriever: retriever,
		reranker:  reranker,
		extractor: NewSignalExtractor(),
		fusion:    fusion,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rank returns the top k catalog items for the query, descending by fused
// score. Identical calls against the same index snapshot return identical
// orderings.
func (s *Service) Rank(ctx context.Context, query string, k int) (*RankedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidRequest, k)
	}

	cacheKey := strings.ToLower(query) + "|" + strconv.Itoa(k)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			s.logger.Debug("cache hit", "k", k)
			return cached, nil
		}
	}

	start := time.Now()

	idx := s.holder.Load()
	poolSize := poolFor(k, idx.Len())

	candidates, err := s.retriever.Retrieve(ctx, idx, query, poolSize)
	if err != nil {
		return nil, err
	}

	// Signal extraction is local and cheap; it runs before the scoring
	// fan-out so a slow scoring backend never delays it.
	s.extractor.ExtractAll(query, candidates)

	failures := s.reranker.Rerank(ctx, query, candidates)

	s.fusion.Fuse(candidates)

	result, err := s.ranker.Select(candidates, k)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ranked query",
		"k", k,
		"pool_size", len(candidates),
		"rerank_failures", failures,
		"returned", len(result.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.cache != nil {
		s.cache.Put(cacheKey, result)
	}
	return result, nil
}

// RankURL fetches the page at url, extracts its text, and ranks against it.
func (s *Service) RankURL(ctx context.Context, url string, k int) (*RankedResult, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: URL queries are not enabled", ErrInvalidRequest)
	}
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidRequest)
	}

	text, err := s.fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch job description: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: page at %s has no extractable text", ErrInvalidRequest, url)
	}

	return s.Rank(ctx, text, k)
}

// SwapIndex installs a freshly built index snapshot and drops any cached
// results that reference the previous one.
func (s *Service) SwapIndex(idx index.Searcher) {
	s.holder.Swap(idx)
	if s.cache != nil {
		s.cache.Invalidate()
	}
	s.logger.Info("index snapshot swapped", "items", idx.Len())
}

// poolFor sizes the candidate pool: at least DefaultPoolFloor, scaled with k,
// never more than the catalog.
func poolFor(k, catalogSize int) int {
	pool := k * poolMultiplier
	if pool < DefaultPoolFloor {
		pool = DefaultPoolFloor
	}
	if pool > catalogSize {
		pool = catalogSize
	}
	return pool
}
