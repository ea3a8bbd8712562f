package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"advisor/internal/adapters/embeddings"
	"advisor/internal/metrics"
	"advisor/internal/rag/vectorstore"
	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// queryInstruction is prepended to search queries before embedding.
// BGE-family models are trained with this retrieval instruction and
// score noticeably better with it; it is harmless for other models.
const queryInstruction = "为这个句子生成表示以用于检索相关文章："

// resultSeparator joins formatted search hits in the context blob.
const resultSeparator = "\n\n---\n\n"

// Retriever ties together document loading, chunking, embedding and the
// vector store for one knowledge domain ("stock", "company").
type Retriever struct {
	domain   string
	loader   *Loader
	provider embeddings.Provider
	store    vectorstore.Store
	topK     int

	// When set, the first search against an empty index ingests this
	// directory before querying.
	knowledgeDir string
	autoIngest   sync.Once

	// Serializes ingestion; searches run concurrently.
	ingestMu sync.Mutex

	log *logger.Logger
}

// RetrieverConfig holds the retriever dependencies and tuning knobs.
type RetrieverConfig struct {
	Domain   string
	Chunker  *Chunker
	Provider embeddings.Provider
	Store    vectorstore.Store
	TopK     int

	// KnowledgeDir enables lazy indexing on first search. Empty
	// disables it.
	KnowledgeDir string
}

// NewRetriever creates a retriever for one knowledge domain.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}

	return &Retriever{
		domain:       cfg.Domain,
		loader:       NewLoader(cfg.Chunker),
		provider:     cfg.Provider,
		store:        cfg.Store,
		topK:         topK,
		knowledgeDir: cfg.KnowledgeDir,
		log:          logger.Get().With("component", "retriever", "domain", cfg.Domain),
	}
}

// IngestDirectory loads every supported file under dir, chunks it,
// embeds the chunks and adds them to the store. A missing directory is
// created and treated as empty.
func (r *Retriever) IngestDirectory(ctx context.Context, dir string) (int, error) {
	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()

	docs, err := r.loader.LoadDirectory(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "load directory %s", dir)
	}

	n, err := r.ingestDocuments(ctx, docs)
	if err != nil {
		return n, err
	}

	r.log.Infof("Ingested %d chunks from %s", n, dir)
	return n, nil
}

// IngestFile loads one file and adds its chunks to the store.
func (r *Retriever) IngestFile(ctx context.Context, path string) (int, error) {
	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()

	docs, err := r.loader.Load(path)
	if err != nil {
		return 0, err
	}
	return r.ingestDocuments(ctx, docs)
}

func (r *Retriever) ingestDocuments(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	metadatas := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		metadatas[i] = doc.Metadata
	}

	vectors, err := r.provider.GenerateBatchEmbeddings(ctx, texts)
	if err != nil {
		return 0, errors.Wrap(err, "embed chunks")
	}

	if err := r.store.Add(ctx, texts, vectors, metadatas); err != nil {
		return 0, errors.Wrap(err, "store chunks")
	}

	return len(texts), nil
}

// Search embeds the query and returns the topK nearest chunks formatted
// as a single context blob with source attribution. Failures and empty
// indexes both yield "" — retrieval never blocks an analysis.
func (r *Retriever) Search(ctx context.Context, query string) string {
	results, err := r.searchResults(ctx, query)
	if err != nil {
		r.log.Warnf("Search failed, continuing without context: %v", err)
		return ""
	}
	return FormatResults(results)
}

// SearchResults returns the raw nearest chunks for callers that need
// per-result metadata.
func (r *Retriever) SearchResults(ctx context.Context, query string) ([]vectorstore.Result, error) {
	return r.searchResults(ctx, query)
}

func (r *Retriever) searchResults(ctx context.Context, query string) ([]vectorstore.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	r.maybeAutoIngest(ctx)

	vector, err := r.provider.GenerateEmbedding(ctx, queryInstruction+query)
	if err != nil {
		metrics.RetrievalSearches.WithLabelValues(r.domain, "error").Inc()
		return nil, errors.Wrap(err, "embed query")
	}

	results, err := r.store.Search(ctx, vector, r.topK)
	switch {
	case err != nil:
		metrics.RetrievalSearches.WithLabelValues(r.domain, "error").Inc()
	case len(results) == 0:
		metrics.RetrievalSearches.WithLabelValues(r.domain, "miss").Inc()
	default:
		metrics.RetrievalSearches.WithLabelValues(r.domain, "hit").Inc()
	}
	return results, err
}

// maybeAutoIngest indexes the knowledge directory once, on the first
// search that finds the index empty. Failures are logged; the search
// proceeds against whatever the store holds.
func (r *Retriever) maybeAutoIngest(ctx context.Context) {
	if r.knowledgeDir == "" {
		return
	}
	r.autoIngest.Do(func() {
		count, err := r.store.Count(ctx)
		if err != nil || count > 0 {
			return
		}
		if _, err := r.IngestDirectory(ctx, r.knowledgeDir); err != nil {
			r.log.Warnf("Auto-index of %s failed: %v", r.knowledgeDir, err)
		}
	})
}

// Count returns the number of chunks in the domain index.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// Clear removes every chunk from the domain index.
func (r *Retriever) Clear(ctx context.Context) error {
	r.ingestMu.Lock()
	defer r.ingestMu.Unlock()
	return r.store.Clear(ctx)
}

// Close releases the underlying store.
func (r *Retriever) Close() error {
	return r.store.Close()
}

// FormatResults renders search hits as a context blob, each prefixed
// with its source attribution.
func FormatResults(results []vectorstore.Result) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		source := "未知来源"
		if s, ok := res.Metadata["source"].(string); ok && s != "" {
			source = s
		}

		header := fmt.Sprintf("【来源: %s】", source)
		if page, ok := pageNumber(res.Metadata["page"]); ok {
			header = fmt.Sprintf("【来源: %s 第%d页】", source, page)
		}

		parts = append(parts, header+"\n"+res.Text)
	}

	return strings.Join(parts, resultSeparator)
}

// pageNumber normalizes the page metadata value, which round-trips
// through JSON as float64.
func pageNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
