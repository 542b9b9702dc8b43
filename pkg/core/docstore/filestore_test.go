package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

func testDoc(id string) models.Document {
	return models.Document{
		ID:      id,
		Ticker:  "TEST",
		DocType: "10-K",
		Title:   "Annual report",
		Date:    "2024-02-01",
		URL:     "https://example.com/" + id,
	}
}

func TestSaveAndLoad(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if _, err := store.Save(context.Background(), testDoc("TEST-10K-2024"), []byte("filing body")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc, content, err := store.Load(context.Background(), "TEST-10K-2024")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.DocType != "10-K" || doc.Ticker != "TEST" {
		t.Errorf("Metadata lost in round trip: %+v", doc)
	}
	if string(content) != "filing body" {
		t.Errorf("Content lost in round trip: %q", content)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if _, err := store.Save(context.Background(), testDoc("TEST-10K-2024"), []byte("original")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	// A second save must not clobber the stored content.
	if _, err := store.Save(context.Background(), testDoc("TEST-10K-2024"), []byte("tampered")); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	_, content, err := store.Load(context.Background(), "TEST-10K-2024")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(content) != "original" {
		t.Errorf("Stored content changed on re-save: %q", content)
	}
}

func TestLoadMissingDocument(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	_, _, err = store.Load(context.Background(), "TEST-NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	for _, id := range []string{"TEST-10K-2024", "TEST-10Q-2024"} {
		if _, err := store.Save(context.Background(), testDoc(id), []byte("body")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	docs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(docs))
	}
}
