package index

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/hireloop/recommender/internal/catalog"
)

const itemIDPayloadKey = "item_id"

// QdrantIndex implements the Searcher contract against a Qdrant collection.
// It is the escape hatch for catalogs too large for exact in-memory search;
// Qdrant's HNSW keeps the same descending-similarity contract within its
// recall tolerance. Item metadata stays in process; only id and vector live
// in Qdrant.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	items      map[string]*catalog.Item
	positions  map[string]int
	count      int
}

// NewQdrantIndex connects to Qdrant at url ("host:port", gRPC) and populates
// the named collection from the catalog, recreating it if it already exists
// so a reload is a clean copy-and-swap.
func NewQdrantIndex(ctx context.Context, url, collection string, items []*catalog.Item) (*QdrantIndex, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// If no port specified, assume default
		host = url
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	dimension := len(items[0].Embedding)
	idx := &QdrantIndex{
		client:     client,
		collection: collection,
		dimension:  dimension,
		items:      make(map[string]*catalog.Item, len(items)),
		positions:  make(map[string]int, len(items)),
		count:      len(items),
	}

	for i, it := range items {
		if len(it.Embedding) != dimension {
			return nil, fmt.Errorf("%w: item %s has dimension %d, want %d",
				ErrDimensionMismatch, it.ID, len(it.Embedding), dimension)
		}
		idx.items[it.ID] = it
		idx.positions[it.ID] = i
	}

	if err := idx.populate(ctx, items); err != nil {
		client.Close()
		return nil, err
	}

	return idx, nil
}

func (q *QdrantIndex) populate(ctx context.Context, items []*catalog.Item) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete stale collection: %w", err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(items))
	for i, it := range items {
		points[i] = &qdrant.PointStruct{
			// Catalog IDs are arbitrary strings; Qdrant point IDs must be
			// UUIDs, so derive one deterministically.
			Id: qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(it.ID)).String()),
			Payload: map[string]*qdrant.Value{
				itemIDPayloadKey: qdrant.NewValueString(it.ID),
			},
			Vectors: qdrant.NewVectors(it.Embedding...),
		}
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search queries Qdrant and maps hits back to catalog items.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, topN int) ([]Hit, error) {
	if len(vector) != q.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			ErrDimensionMismatch, len(vector), q.dimension)
	}
	if topN > q.count {
		topN = q.count
	}

	response, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topN)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]Hit, 0, len(response))
	for _, point := range response {
		payload := point.Payload
		if payload == nil {
			continue
		}
		itemID := payload[itemIDPayloadKey].GetStringValue()
		it, ok := q.items[itemID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Item:  it,
			Score: float64(point.Score),
			Pos:   q.positions[itemID],
		})
	}

	return hits, nil
}

// Dimension returns the embedding dimensionality of the index.
func (q *QdrantIndex) Dimension() int {
	return q.dimension
}

// Len returns the number of indexed items.
func (q *QdrantIndex) Len() int {
	return q.count
}

// Close closes the Qdrant client connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// Ensure QdrantIndex implements Searcher
var _ Searcher = (*QdrantIndex)(nil)
