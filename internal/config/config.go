// Package config loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/hireloop/recommender/internal/ranking"
)

// Config holds all configuration for the recommender service
type Config struct {
	// Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Catalog storage. DATABASE_URL switches the catalog to postgres;
	// otherwise items are read from CATALOG_DIR JSON files.
	CatalogDir  string `env:"CATALOG_DIR" envDefault:"data/catalog"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Qdrant. When set, retrieval runs against qdrant instead of the
	// in-process index.
	QdrantGRPCURL    string `env:"QDRANT_GRPC_URL"`
	QdrantCollection string `env:"QDRANT_COLLECTION" envDefault:"assessments"`

	// Ollama
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" envDefault:"all-minilm"`
	OllamaScoringModel   string `env:"OLLAMA_SCORING_MODEL" envDefault:"llama3.2"`

	// Ranking
	RerankConcurrency int           `env:"RERANK_CONCURRENCY" envDefault:"8"`
	EmbedTimeout      time.Duration `env:"EMBED_TIMEOUT" envDefault:"10s"`
	ScoreTimeout      time.Duration `env:"SCORE_TIMEOUT" envDefault:"20s"`

	// Fusion weights
	WeightRetrieval float64 `env:"WEIGHT_RETRIEVAL" envDefault:"0.4"`
	WeightRerank    float64 `env:"WEIGHT_RERANK" envDefault:"0.6"`
	WeightLexical   float64 `env:"WEIGHT_LEXICAL" envDefault:"0.06"`
	WeightIntent    float64 `env:"WEIGHT_INTENT" envDefault:"0.04"`
	WeightBoost     float64 `env:"WEIGHT_BOOST" envDefault:"0.10"`

	// Result cache
	CacheEntries int           `env:"CACHE_ENTRIES" envDefault:"1000"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"15m"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-in-production"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Weights().Validate(); err != nil {
		return nil, fmt.Errorf("fusion weights: %w", err)
	}
	return cfg, nil
}

// Weights assembles the configured fusion weight vector.
func (c *Config) Weights() ranking.Weights {
	return ranking.Weights{
		Retrieval: c.WeightRetrieval,
		Rerank:    c.WeightRerank,
		Lexical:   c.WeightLexical,
		Intent:    c.WeightIntent,
		Boost:     c.WeightBoost,
	}
}
