// Package docstore persists point-in-time source documents. Documents are
// immutable and content-addressed: saving an id that already exists is a
// no-op, so concurrent writers are safe without coordination.
package docstore

import (
	"context"
	"errors"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// ErrNotFound is returned when a document id is absent from the store.
var ErrNotFound = errors.New("document not found")

// Store is the document persistence contract consumed by the provenance
// validator and the valuation config loader.
type Store interface {
	// Save persists metadata and content. Idempotent by document id.
	Save(ctx context.Context, doc models.Document, content []byte) (models.Document, error)
	// Load returns the metadata and content for an id, or ErrNotFound.
	Load(ctx context.Context, id string) (models.Document, []byte, error)
}
