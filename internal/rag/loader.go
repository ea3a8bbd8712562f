package rag

import (
	"os"
	"path/filepath"
	"strings"

	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Document is one chunk of source text with its attribution metadata.
type Document struct {
	Content  string
	Metadata map[string]interface{}
}

// Page is one page-sized unit of extracted text.
type Page struct {
	Number int
	Text   string
}

// Extractor turns one file into page-segmented plain text. PDF or other
// binary format support plugs in here; the shipped extractor reads plain
// text files.
type Extractor interface {
	// Extensions returns the lowercase file extensions this extractor handles.
	Extensions() []string

	// Extract reads a file and returns its pages.
	Extract(path string) ([]Page, error)
}

// Loader enumerates documents in a directory, extracts text, and chunks it.
type Loader struct {
	chunker    *Chunker
	extractors map[string]Extractor
	log        *logger.Logger
}

// NewLoader creates a loader using the given chunker and extractors.
// With no extractors the plain-text extractor is installed.
func NewLoader(chunker *Chunker, extractors ...Extractor) *Loader {
	if len(extractors) == 0 {
		extractors = []Extractor{NewTextExtractor()}
	}

	byExt := make(map[string]Extractor)
	for _, ex := range extractors {
		for _, ext := range ex.Extensions() {
			byExt[strings.ToLower(ext)] = ex
		}
	}

	return &Loader{
		chunker:    chunker,
		extractors: byExt,
		log:        logger.Get().With("component", "rag_loader"),
	}
}

// Load reads one file and returns its chunks with source metadata.
// A missing or unreadable file is an error, not a silent partial ingest.
func (l *Loader) Load(path string) ([]Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := l.extractors[ext]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported document type %q", ext)
	}

	pages, err := extractor.Extract(path)
	if err != nil {
		return nil, errors.Wrapf(err, "extract %s", path)
	}

	fileName := filepath.Base(path)
	var documents []Document

	for _, page := range pages {
		text := cleanText(page.Text)
		if text == "" {
			continue
		}

		for chunkIdx, chunk := range l.chunker.Split(text) {
			documents = append(documents, Document{
				Content: chunk,
				Metadata: map[string]interface{}{
					"source": fileName,
					"page":   page.Number,
					"chunk":  chunkIdx + 1,
				},
			})
		}
	}

	l.log.Infof("Loaded %s: %d pages, %d chunks", fileName, len(pages), len(documents))
	return documents, nil
}

// LoadDirectory loads every eligible document under dir. A missing
// directory is created and yields zero documents, not an error.
func (l *Loader) LoadDirectory(dir string) ([]Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create knowledge dir %s", dir)
		}
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read knowledge dir %s", dir)
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := l.extractors[ext]; !ok {
			continue
		}
		docs, err := l.Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		documents = append(documents, docs...)
	}

	return documents, nil
}

// cleanText strips blank lines and surrounding whitespace per line.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}

// TextExtractor reads plain-text documents as a single page.
type TextExtractor struct{}

// NewTextExtractor creates an extractor for .txt and .md files.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extensions returns the handled file extensions.
func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".md"}
}

// Extract reads the whole file as page 1.
func (e *TextExtractor) Extract(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []Page{{Number: 1, Text: string(data)}}, nil
}
