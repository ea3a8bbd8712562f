package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/metrics"
	"advisor/internal/rag/vectorstore"
)

// hashProvider embeds by character sums, deterministic and cheap.
type hashProvider struct {
	fail bool
}

func (p *hashProvider) Name() string    { return "hash" }
func (p *hashProvider) Dimensions() int { return 2 }

func (p *hashProvider) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if p.fail {
		return nil, errors.New("embedding backend down")
	}
	var sum float32
	for _, r := range text {
		sum += float32(r % 97)
	}
	return []float32{sum, float32(len(text))}, nil
}

func (p *hashProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// memStore is an in-memory Store for retriever tests.
type memStore struct {
	texts     []string
	metadatas []map[string]interface{}
	failAdd   bool
}

func (m *memStore) Add(_ context.Context, texts []string, _ [][]float32, metadatas []map[string]interface{}) error {
	if m.failAdd {
		return errors.New("store down")
	}
	m.texts = append(m.texts, texts...)
	m.metadatas = append(m.metadatas, metadatas...)
	return nil
}

func (m *memStore) Search(_ context.Context, _ []float32, k int) ([]vectorstore.Result, error) {
	var results []vectorstore.Result
	for i, text := range m.texts {
		if len(results) >= k {
			break
		}
		results = append(results, vectorstore.Result{
			Text:     text,
			Metadata: m.metadatas[i],
			Distance: float64(i) * 0.1,
		})
	}
	return results, nil
}

func (m *memStore) Count(context.Context) (int, error) { return len(m.texts), nil }
func (m *memStore) Clear(context.Context) error        { m.texts = nil; m.metadatas = nil; return nil }
func (m *memStore) Close() error                       { return nil }

func newTestRetriever(t *testing.T, store vectorstore.Store, provider *hashProvider) *Retriever {
	t.Helper()
	return NewRetriever(RetrieverConfig{
		Domain:   "stock",
		Chunker:  NewChunker(50, 5),
		Provider: provider,
		Store:    store,
		TopK:     2,
	})
}

func TestRetriever_IngestFileAndSearch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	content := "公司主营业务稳定。盈利能力持续增强。现金流状况良好。"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := &memStore{}
	r := newTestRetriever(t, store, &hashProvider{})

	n, err := r.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	count, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, count)

	blob := r.Search(context.Background(), "盈利能力")
	assert.Contains(t, blob, "【来源: report.txt")
	assert.Contains(t, blob, "第1页")
}

func TestRetriever_IngestMissingDirectoryIsEmpty(t *testing.T) {
	store := &memStore{}
	r := newTestRetriever(t, store, &hashProvider{})

	missing := filepath.Join(t.TempDir(), "nonexistent")
	n, err := r.IngestDirectory(context.Background(), missing)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The directory is created so later ingests have a target.
	_, statErr := os.Stat(missing)
	assert.NoError(t, statErr)
}

func TestRetriever_AutoIndexOnFirstSearch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("白酒行业集中度持续提升。"), 0o644))

	store := &memStore{}
	r := NewRetriever(RetrieverConfig{
		Domain:       "company",
		Chunker:      NewChunker(50, 5),
		Provider:     &hashProvider{},
		Store:        store,
		TopK:         2,
		KnowledgeDir: dir,
	})

	blob := r.Search(context.Background(), "白酒行业")
	assert.Contains(t, blob, "白酒行业集中度持续提升")

	// Indexing happens once; a second search does not re-ingest.
	before := len(store.texts)
	r.Search(context.Background(), "白酒行业")
	assert.Equal(t, before, len(store.texts))
}

func TestRetriever_SearchNeverErrors(t *testing.T) {
	store := &memStore{}
	r := newTestRetriever(t, store, &hashProvider{fail: true})

	// Embedding failure degrades to an empty context blob.
	assert.Equal(t, "", r.Search(context.Background(), "anything"))
}

func TestRetriever_SearchEmptyQuery(t *testing.T) {
	store := &memStore{texts: []string{"something"}, metadatas: []map[string]interface{}{{}}}
	r := newTestRetriever(t, store, &hashProvider{})

	assert.Equal(t, "", r.Search(context.Background(), "   "))
}

func TestRetriever_SearchEmptyIndex(t *testing.T) {
	r := newTestRetriever(t, &memStore{}, &hashProvider{})

	assert.Equal(t, "", r.Search(context.Background(), "任何问题"))
}

func TestRetriever_SearchOutcomeCounters(t *testing.T) {
	hit := metrics.RetrievalSearches.WithLabelValues("stock", "hit")
	miss := metrics.RetrievalSearches.WithLabelValues("stock", "miss")
	errCounter := metrics.RetrievalSearches.WithLabelValues("stock", "error")
	hitBefore := testutil.ToFloat64(hit)
	missBefore := testutil.ToFloat64(miss)
	errBefore := testutil.ToFloat64(errCounter)

	populated := &memStore{texts: []string{"内容"}, metadatas: []map[string]interface{}{{}}}
	newTestRetriever(t, populated, &hashProvider{}).Search(context.Background(), "查询")
	newTestRetriever(t, &memStore{}, &hashProvider{}).Search(context.Background(), "查询")
	newTestRetriever(t, &memStore{}, &hashProvider{fail: true}).Search(context.Background(), "查询")

	assert.Equal(t, hitBefore+1, testutil.ToFloat64(hit))
	assert.Equal(t, missBefore+1, testutil.ToFloat64(miss))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(errCounter))
}

func TestRetriever_ClearResetsCount(t *testing.T) {
	store := &memStore{texts: []string{"a", "b"}, metadatas: []map[string]interface{}{{}, {}}}
	r := newTestRetriever(t, store, &hashProvider{})

	require.NoError(t, r.Clear(context.Background()))

	count, err := r.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFormatResults(t *testing.T) {
	results := []vectorstore.Result{
		{Text: "第一段内容", Metadata: map[string]interface{}{"source": "a.pdf", "page": float64(3)}},
		{Text: "第二段内容", Metadata: map[string]interface{}{"source": "b.txt", "page": 1}},
		{Text: "无来源内容", Metadata: map[string]interface{}{}},
	}

	blob := FormatResults(results)
	parts := strings.Split(blob, "\n\n---\n\n")
	require.Len(t, parts, 3)

	assert.True(t, strings.HasPrefix(parts[0], "【来源: a.pdf 第3页】\n"))
	assert.True(t, strings.HasPrefix(parts[1], "【来源: b.txt 第1页】\n"))
	assert.True(t, strings.HasPrefix(parts[2], "【来源: 未知来源】\n"))
}

func TestFormatResults_Empty(t *testing.T) {
	assert.Equal(t, "", FormatResults(nil))
}
