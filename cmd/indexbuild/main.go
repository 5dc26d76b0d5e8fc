// Command indexbuild embeds every catalog item and stores the vectors, so
// the service can build its retrieval index at startup without touching the
// embedding backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hireloop/recommender/internal/catalog"
	"github.com/hireloop/recommender/internal/catalog/postgres"
	"github.com/hireloop/recommender/internal/config"
	"github.com/hireloop/recommender/internal/embedder"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var repo catalog.Repository
	if cfg.DatabaseURL != "" {
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = postgres.NewItemRepo(db)
	} else {
		repo = catalog.NewFileStore(cfg.CatalogDir)
	}

	items, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("catalog is empty, run the crawler first")
	}
	slog.Info("embedding catalog", "items", len(items), "model", cfg.OllamaEmbeddingModel)

	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.EmbedText()
	}

	vectors, err := embed.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}

	embeddings := make(map[string][]float32, len(items))
	for i, it := range items {
		embeddings[it.ID] = vectors[i]
	}

	if err := repo.SaveEmbeddings(ctx, embeddings); err != nil {
		return fmt.Errorf("save embeddings: %w", err)
	}

	slog.Info("embeddings saved", "items", len(embeddings), "dimension", embed.Dimension())
	return nil
}
