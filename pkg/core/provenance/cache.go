package provenance

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/core/docstore"
)

// documentCache memoizes extracted document text for the lifetime of one
// validation pass, so a metric set quoting the same filing loads it once.
type documentCache struct {
	store docstore.Store

	mu    sync.Mutex
	texts map[string]string
}

func newDocumentCache(store docstore.Store) *documentCache {
	return &documentCache{store: store, texts: make(map[string]string)}
}

func (c *documentCache) fetchText(ctx context.Context, docID string) (string, error) {
	c.mu.Lock()
	text, ok := c.texts[docID]
	c.mu.Unlock()
	if ok {
		return text, nil
	}

	_, content, err := c.store.Load(ctx, docID)
	if err != nil {
		return "", err
	}
	text = extractText(content)

	c.mu.Lock()
	c.texts[docID] = text
	c.mu.Unlock()
	return text, nil
}

// extractText strips markup from HTML filings so quotes match the visible
// text; anything else is treated as plain text.
func extractText(content []byte) string {
	if !looksLikeHTML(content) {
		return string(content)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return string(content)
	}
	return doc.Text()
}

func looksLikeHTML(content []byte) bool {
	head := strings.ToLower(string(content[:min(len(content), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
