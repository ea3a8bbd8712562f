package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Compile-time check
var _ Store = (*SQLiteStore)(nil)

var collectionNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLiteStore is the default durable vector store: one SQLite database
// file per directory, one table per collection, vectors as float32 BLOBs.
// Similarity is brute-force cosine distance computed in process, which is
// fine at knowledge-base scale (thousands of chunks, not millions).
type SQLiteStore struct {
	db         *sql.DB
	collection string
	log        *logger.Logger
}

// NewSQLiteStore opens (creating if needed) the store for a collection
// persisted under dir.
func NewSQLiteStore(collection, dir string) (*SQLiteStore, error) {
	if !collectionNameRe.MatchString(collection) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid collection name %q", collection)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create vector store dir %s", dir)
	}

	dbPath := filepath.Join(dir, "vectors.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open vector store %s", dbPath)
	}

	store := &SQLiteStore{
		db:         db,
		collection: collection,
		log:        logger.Get().With("component", "sqlite_vectorstore", "collection", collection),
	}

	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			vector BLOB NOT NULL
		)`, s.collection)

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(err, "create collection table %s", s.collection)
	}
	return nil
}

// Add appends entries. Empty input is a no-op.
func (s *SQLiteStore) Add(ctx context.Context, texts []string, vectors [][]float32, metadatas []map[string]interface{}) error {
	if len(texts) == 0 {
		return nil
	}
	if len(vectors) != len(texts) {
		return errors.Wrapf(errors.ErrInvalidInput, "texts/vectors length mismatch: %d vs %d", len(texts), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin vector insert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (text, metadata, vector) VALUES (?, ?, ?)", s.collection))
	if err != nil {
		return errors.Wrap(err, "prepare vector insert")
	}
	defer func() { _ = stmt.Close() }()

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

		if _, err := stmt.ExecContext(ctx, text, string(metaJSON), encodeVector(vectors[i])); err != nil {
			return errors.Wrapf(err, "insert entry %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit vector insert")
	}

	s.log.Debugf("Added %d entries", len(texts))
	return nil
}

// Search scans the collection and returns up to k nearest entries.
func (s *SQLiteStore) Search(ctx context.Context, queryVector []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT text, metadata, vector FROM %s", s.collection))
	if err != nil {
		return nil, errors.Wrap(err, "query vectors")
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var text, metaJSON string
		var blob []byte
		if err := rows.Scan(&text, &metaJSON, &blob); err != nil {
			return nil, errors.Wrap(err, "scan vector row")
		}

		vector := decodeVector(blob)
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(metaJSON), &metadata); err != nil {
			metadata = map[string]interface{}{}
		}

		results = append(results, Result{
			Text:     text,
			Metadata: metadata,
			Distance: cosineDistance(queryVector, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate vector rows")
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the entry count.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s", s.collection)).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count vectors")
	}
	return count, nil
}

// Clear removes all entries. Idempotent.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.collection)); err != nil {
		return errors.Wrap(err, "clear collection")
	}
	s.log.Infof("Cleared collection")
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeVector packs float32s as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into float32s.
func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// cosineDistance returns 1 - cosine similarity. Mismatched or zero-norm
// vectors score as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1.0
	}

	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
