package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hireloop/recommender/internal/auth"
	"github.com/hireloop/recommender/internal/catalog"
	"github.com/hireloop/recommender/internal/catalog/postgres"
	"github.com/hireloop/recommender/internal/config"
	"github.com/hireloop/recommender/internal/crawler"
	"github.com/hireloop/recommender/internal/embedder"
	"github.com/hireloop/recommender/internal/index"
	"github.com/hireloop/recommender/internal/llm"
	"github.com/hireloop/recommender/internal/memory"
	"github.com/hireloop/recommender/internal/ranking"
	"github.com/hireloop/recommender/internal/scorer"
	"github.com/hireloop/recommender/internal/server"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting recommender service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	// Catalog storage: postgres when configured, JSON files otherwise.
	var repo catalog.Repository
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = postgres.NewItemRepo(db)
		slog.Info("catalog backed by PostgreSQL")
	} else {
		repo = catalog.NewFileStore(cfg.CatalogDir)
		slog.Info("catalog backed by JSON files", "dir", cfg.CatalogDir)
	}

	buildIndex := func(ctx context.Context) (index.Searcher, error) {
		items, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if cfg.QdrantGRPCURL != "" {
			qidx, err := index.NewQdrantIndex(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection, items)
			if err != nil {
				return nil, err
			}
			return qidx, nil
		}
		exact, err := index.Build(items)
		if err != nil {
			return nil, err
		}
		return exact, nil
	}

	idx, err := buildIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	holder := index.NewHolder(idx)
	slog.Info("catalog index ready", "items", idx.Len(), "dimension", idx.Dimension())

	// Initialize Ollama embedder
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	slog.Info("initialized Ollama embedder", "model", cfg.OllamaEmbeddingModel)

	// Initialize Ollama scoring model
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaScoringModel),
	)
	pairwise := scorer.NewLLMScorer(llmClient, scorer.WithModel(cfg.OllamaScoringModel))
	slog.Info("initialized pairwise scorer", "model", cfg.OllamaScoringModel)

	// Assemble the ranking pipeline
	fusion, err := ranking.NewFusionScorer(cfg.Weights())
	if err != nil {
		return err
	}
	svc := ranking.NewService(
		holder,
		ranking.NewRetriever(embed, cfg.EmbedTimeout, slog.Default()),
		ranking.NewReranker(pairwise, cfg.RerankConcurrency, cfg.ScoreTimeout, slog.Default()),
		fusion,
		ranking.WithCache(memory.NewCache[*ranking.RankedResult](cfg.CacheEntries, cfg.CacheTTL)),
		ranking.WithPageFetcher(crawler.NewTextFetcher(20*time.Second)),
	)

	reload := func(ctx context.Context) (int, error) {
		next, err := buildIndex(ctx)
		if err != nil {
			return 0, err
		}
		svc.SwapIndex(next)
		return next.Len(), nil
	}

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Port:    cfg.HTTPPort,
		Service: svc,
		Reload:  reload,
		JWT: auth.NewJWTManager(&auth.JWTConfig{
			Secret: cfg.JWTSecret,
			Expiry: cfg.JWTExpiry,
		}),
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	return nil
}
