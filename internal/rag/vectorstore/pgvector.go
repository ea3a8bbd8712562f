package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Compile-time check
var _ Store = (*PgVectorStore)(nil)

// PgVectorStore implements Store using sqlx and pgvector. Preferred over
// the SQLite backend when Postgres is configured, since similarity runs
// server-side over an ivfflat index.
type PgVectorStore struct {
	db         *sqlx.DB
	collection string
	dimensions int
	log        *logger.Logger
}

type chunkRow struct {
	Text     string          `db:"text"`
	Metadata json.RawMessage `db:"metadata"`
	Distance float64         `db:"distance"`
}

// NewPgVectorStore connects to Postgres with the given DSN and ensures
// the knowledge_chunks table exists with the right vector dimensions.
func NewPgVectorStore(dsn, collection string, dimensions int) (*PgVectorStore, error) {
	if !collectionNameRe.MatchString(collection) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid collection name %q", collection)
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	store := &PgVectorStore{
		db:         db,
		collection: collection,
		dimensions: dimensions,
		log:        logger.Get().With("component", "pgvector_store", "collection", collection),
	}

	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PgVectorStore) ensureSchema() error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS knowledge_chunks (
				id BIGSERIAL PRIMARY KEY,
				collection TEXT NOT NULL,
				text TEXT NOT NULL,
				metadata JSONB NOT NULL DEFAULT '{}',
				embedding vector(%d) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_collection ON knowledge_chunks (collection)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "ensure knowledge_chunks schema")
		}
	}
	return nil
}

// Add appends entries. Empty input is a no-op.
func (s *PgVectorStore) Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) error {
	if len(texts) == 0 {
		return nil
	}
	if len(vectors) != len(texts) {
		return errors.Wrapf(errors.ErrInvalidInput, "texts/vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin chunk insert")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO knowledge_chunks (collection, text, metadata, embedding)
		VALUES ($1, $2, $3, $4)`

	for i, text := range texts {
		var metadata map[string]interface{}
		if i < len(metadatas) {
			metadata = metadatas[i]
		}
		if metadata == nil {
			metadata = map[string]interface{}{}
		}

		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return errors.Wrap(err, "marshal metadata")
		}

		if _, err := tx.ExecContext(ctx, query, s.collection, text, metaJSON, pgvector.NewVector(vectors[i])); err != nil {
			return errors.Wrapf(err, "insert chunk %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit chunk insert")
	}

	s.log.Debugf("Added %d chunks", len(texts))
	return nil
}

// Search performs cosine search server-side via the pgvector <=> operator.
func (s *PgVectorStore) Search(ctx context.Context, queryVector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	query := `
		SELECT text, metadata, embedding <=> $2 AS distance
		FROM knowledge_chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3`

	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, query, s.collection, pgvector.NewVector(queryVector), k); err != nil {
		return nil, errors.Wrap(err, "search chunks")
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]interface{}
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			metadata = map[string]interface{}{}
		}
		results = append(results, Result{
			Text:     row.Text,
			Metadata: metadata,
			Distance: row.Distance,
		})
	}
	return results, nil
}

// Count returns the entry count for this collection.
func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM knowledge_chunks WHERE collection = $1`, s.collection)
	if err != nil {
		return 0, errors.Wrap(err, "count chunks")
	}
	return count, nil
}

// Clear removes all entries for this collection. Idempotent.
func (s *PgVectorStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM knowledge_chunks WHERE collection = $1`, s.collection)
	if err != nil {
		return errors.Wrap(err, "clear collection")
	}
	s.log.Infof("Cleared collection")
	return nil
}

// Close closes the underlying connection pool.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}
