package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks regulaqa/internal/vectorstore Store,Conn

import "context"

// ChunkRecord is one stored chunk as returned by GetAll.
type ChunkRecord struct {
	ID   string
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// Conn is a live handle to the persisted collection location. A Conn is
// owned by exactly one caller at a time; Close releases the underlying
// transport.
type Conn interface {
	// CollectionExists checks if the collection exists on the backend.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// CreateCollectionFrom creates the collection and writes the initial
	// chunk batch. Returns the assigned point IDs, one per text.
	CreateCollectionFrom(ctx context.Context, collection string, vectorSize int, texts []string, vectors [][]float32, metas []map[string]any) ([]string, error)

	// Append adds chunks to an existing collection. Returns the assigned
	// point IDs, one per text.
	Append(ctx context.Context, collection string, texts []string, vectors [][]float32, metas []map[string]any) ([]string, error)

	// GetAll returns every chunk's ID and metadata. Cost is O(total chunks).
	GetAll(ctx context.Context, collection string) ([]ChunkRecord, error)

	// UpdateMetadata merges the given payload keys into every listed point.
	UpdateMetadata(ctx context.Context, collection string, ids []string, payload map[string]any) error

	// DeletePoints removes points by their IDs.
	DeletePoints(ctx context.Context, collection string, ids []string) error

	// DeleteCollection drops the whole collection. Deleting an absent
	// collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// Search performs a similarity search over the collection.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Close releases the handle.
	Close() error
}

// Store opens handles to the persisted vector store. Open always returns
// a fresh connection; callers that cache a Conn must close it before
// opening another one against the same location.
type Store interface {
	Open(ctx context.Context) (Conn, error)
}
