package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// FileStore keeps documents on disk, one directory per ticker, with a
// metadata JSON file and a content file per document.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create document store dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Save writes metadata and content unless the document already exists.
func (s *FileStore) Save(_ context.Context, doc models.Document, content []byte) (models.Document, error) {
	dir := filepath.Join(s.basePath, doc.Ticker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.Document{}, fmt.Errorf("create ticker dir: %w", err)
	}
	metaPath := filepath.Join(dir, doc.ID+".json")
	contentPath := filepath.Join(dir, doc.ID+".bin")

	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		payload, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return models.Document{}, fmt.Errorf("marshal document metadata: %w", err)
		}
		if err := os.WriteFile(metaPath, payload, 0o644); err != nil {
			return models.Document{}, fmt.Errorf("write document metadata: %w", err)
		}
	}
	if _, err := os.Stat(contentPath); os.IsNotExist(err) {
		if err := os.WriteFile(contentPath, content, 0o644); err != nil {
			return models.Document{}, fmt.Errorf("write document content: %w", err)
		}
	}
	return doc, nil
}

// Load resolves the ticker directory from the id prefix before the first
// dash, matching the id convention used at ingestion.
func (s *FileStore) Load(_ context.Context, id string) (models.Document, []byte, error) {
	ticker, _, _ := strings.Cut(id, "-")
	dir := filepath.Join(s.basePath, ticker)
	metaPath := filepath.Join(dir, id+".json")
	contentPath := filepath.Join(dir, id+".bin")

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return models.Document{}, nil, fmt.Errorf("read document metadata: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(metaBytes, &doc); err != nil {
		return models.Document{}, nil, fmt.Errorf("decode document metadata: %w", err)
	}
	content, err := os.ReadFile(contentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return models.Document{}, nil, fmt.Errorf("read document content: %w", err)
	}
	return doc, content, nil
}

// List returns all stored document metadata.
func (s *FileStore) List(_ context.Context) ([]models.Document, error) {
	pattern := filepath.Join(s.basePath, "*", "*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scan document store: %w", err)
	}
	docs := make([]models.Document, 0, len(matches))
	for _, path := range matches {
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var doc models.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
