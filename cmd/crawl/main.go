// Command crawl walks the assessment catalog site and stores the discovered
// items in the configured catalog backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hireloop/recommender/internal/catalog"
	"github.com/hireloop/recommender/internal/catalog/postgres"
	"github.com/hireloop/recommender/internal/config"
	"github.com/hireloop/recommender/internal/crawler"
)

func main() {
	startURL := flag.String("start-url", "https://www.shl.com/solutions/products/product-catalog/", "catalog listing page to start from")
	maxPages := flag.Int("max-pages", 200, "maximum listing pages to visit")
	delayMS := flag.Int("delay-ms", 600, "pause between page loads in milliseconds")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*startURL, *maxPages, *delayMS); err != nil {
		slog.Error("crawl failed", "error", err)
		os.Exit(1)
	}
}

func run(startURL string, maxPages, delayMS int) error {
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

	crawlCfg := crawler.DefaultConfig(startURL)
	crawlCfg.MaxPages = maxPages
	crawlCfg.DelayMS = delayMS

	items, err := crawler.New(crawlCfg, slog.Default()).Crawl(ctx)
	if err != nil {
		return fmt.Errorf("crawl catalog: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("crawl found no items")
	}

	refs := make([]*catalog.Item, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	if err := repo.Upsert(ctx, refs); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}

	slog.Info("catalog stored", "items", len(refs))
	return nil
}
