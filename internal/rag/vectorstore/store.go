package vectorstore

import "context"

// Result is one similarity-search hit. Distance is cosine distance,
// lower means more similar.
type Result struct {
	Text     string
	Metadata map[string]interface{}
	Distance float64
}

// Store persists (vector, text, metadata) triples in a named collection
// and serves k-nearest-neighbor cosine search. Contents survive process
// restarts; distinct collections are fully isolated.
type Store interface {
	// Add appends parallel slices as new entries. Empty input is a no-op.
	Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) error

	// Search returns up to k nearest entries by cosine distance.
	// Returns fewer than k when the collection is smaller, and an empty
	// slice on an empty collection.
	Search(ctx context.Context, queryVector []float32, k int) ([]Result, error)

	// Count returns the current entry count.
	Count(ctx context.Context) (int, error)

	// Clear removes all entries in the collection. Idempotent.
	Clear(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
