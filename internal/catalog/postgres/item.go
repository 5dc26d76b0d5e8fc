package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hireloop/recommender/internal/catalog"
)

// ItemRepo implements catalog.Repository on PostgreSQL. Items keep a
// monotonically increasing position column so List always returns them in
// first-insertion order, which the index relies on for deterministic
// tie-breaking.
type ItemRepo struct {
	db *DB
}

// NewItemRepo creates a new catalog item repository
func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// List returns every catalog item in insertion order, with embeddings attached
// where present.
func (r *ItemRepo) List(ctx context.Context) ([]*catalog.Item, error) {
	query := `
		SELECT i.id, i.name, i.url, i.test_type, i.description, i.languages, i.duration_min, e.vector
		FROM catalog_items i
		LEFT JOIN catalog_embeddings e ON e.item_id = i.id
		ORDER BY i.position
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.Item
	for rows.Next() {
		var it catalog.Item
		var languagesJSON []byte
		var vectorJSON []byte
		if err := rows.Scan(&it.ID, &it.Name, &it.URL, &it.TestType, &it.Description,
			&languagesJSON, &it.DurationMin, &vectorJSON); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		if len(languagesJSON) > 0 {
			if err := json.Unmarshal(languagesJSON, &it.Languages); err != nil {
				return nil, fmt.Errorf("failed to unmarshal languages: %w", err)
			}
		}
		if len(vectorJSON) > 0 {
			if err := json.Unmarshal(vectorJSON, &it.Embedding); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
			}
		}
		items = append(items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog items: %w", err)
	}

	return items, nil
}

// Upsert inserts or replaces items by ID. New items get the next position;
// existing items keep theirs.
func (r *ItemRepo) Upsert(ctx context.Context, items []*catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("invalid catalog item: %w", err)
		}
		languagesJSON, err := json.Marshal(it.Languages)
		if err != nil {
			return fmt.Errorf("failed to marshal languages: %w", err)
		}
		batch.Queue(`
			INSERT INTO catalog_items (id, name, url, test_type, description, languages, duration_min, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(position), 0) + 1 FROM catalog_items))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				url = EXCLUDED.url,
				test_type = EXCLUDED.test_type,
				description = EXCLUDED.description,
				languages = EXCLUDED.languages,
				duration_min = EXCLUDED.duration_min
		`, it.ID, it.Name, it.URL, it.TestType, it.Description, languagesJSON, it.DurationMin)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert catalog item: %w", err)
		}
	}

	return nil
}

// SaveEmbeddings stores precomputed embeddings keyed by item ID.
func (r *ItemRepo) SaveEmbeddings(ctx context.Context, embeddings map[string][]float32) error {
	if len(embeddings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for id, emb := range embeddings {
		vectorJSON, err := json.Marshal(emb)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		batch.Queue(`
			INSERT INTO catalog_embeddings (item_id, vector)
			VALUES ($1, $2)
			ON CONFLICT (item_id) DO UPDATE SET vector = EXCLUDED.vector
		`, id, vectorJSON)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range embeddings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save embedding: %w", err)
		}
	}

	return nil
}

// Ensure ItemRepo implements the interface
var _ catalog.Repository = (*ItemRepo)(nil)
