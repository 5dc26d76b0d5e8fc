package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	itemsFile      = "items.json"
	embeddingsFile = "embeddings.json"
)

// FileStore persists the catalog as two JSON files in a directory: the item
// records and their embeddings. It is the default catalog source for
// single-node deployments where no database is available.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed catalog store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// List loads all items and attaches embeddings where present.
// Item order is the order of the items file, which is stable across reloads.
func (s *FileStore) List(ctx context.Context) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, itemsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog items: %w", err)
	}

	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog items: %w", err)
	}

	embeddings, err := s.loadEmbeddings()
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog item: %w", err)
		}
		if emb, ok := embeddings[it.ID]; ok {
			it.Embedding = emb
		}
	}

	return items, nil
}

// Upsert replaces or appends items by ID, preserving the insertion order of
// existing items.
func (s *FileStore) Upsert(ctx context.Context, items []*Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := []*Item{}
	data, err := os.ReadFile(filepath.Join(s.dir, itemsFile))
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("failed to parse existing catalog: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing catalog: %w", err)
	}

	byID := make(map[string]int, len(existing))
	for i, it := range existing {
		byID[it.ID] = i
	}

	for _, it := range items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("invalid catalog item: %w", err)
		}
		if i, ok := byID[it.ID]; ok {
			existing[i] = it
		} else {
			byID[it.ID] = len(existing)
			existing = append(existing, it)
		}
	}

	return s.writeJSON(itemsFile, existing)
}

// SaveEmbeddings stores embeddings keyed by item ID, merging with any
// previously saved vectors.
func (s *FileStore) SaveEmbeddings(ctx context.Context, embeddings map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadEmbeddings()
	if err != nil {
		return err
	}
	for id, emb := range embeddings {
		existing[id] = emb
	}

	return s.writeJSON(embeddingsFile, existing)
}

func (s *FileStore) loadEmbeddings() (map[string][]float32, error) {
	embeddings := make(map[string][]float32)
	data, err := os.ReadFile(filepath.Join(s.dir, embeddingsFile))
	if os.IsNotExist(err) {
		return embeddings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog embeddings: %w", err)
	}
	if err := json.Unmarshal(data, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to parse catalog embeddings: %w", err)
	}
	return embeddings, nil
}

func (s *FileStore) writeJSON(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// Ensure FileStore implements Repository
var _ Repository = (*FileStore)(nil)
