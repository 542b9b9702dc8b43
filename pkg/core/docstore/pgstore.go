package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ccrjohn8787/investing-agent-v2/pkg/models"
)

// PostgresStore persists documents in a single table for shared
// deployments. Schema assumption:
//
//	CREATE TABLE IF NOT EXISTS pit_documents (
//	  id         TEXT PRIMARY KEY,
//	  ticker     TEXT NOT NULL,
//	  metadata   JSONB NOT NULL,
//	  content    BYTEA NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore wraps an initialized pgx pool.
func NewPostgresStore(pool *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Save inserts the document unless its content-addressed id already
// exists; existing rows are left untouched.
func (s *PostgresStore) Save(ctx context.Context, doc models.Document, content []byte) (models.Document, error) {
	meta, err := json.Marshal(doc)
	if err != nil {
		return models.Document{}, fmt.Errorf("marshal document metadata: %w", err)
	}
	query := `
		INSERT INTO pit_documents (id, ticker, metadata, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING;
	`
	tag, err := s.pool.Exec(ctx, query, doc.ID, doc.Ticker, meta, content, time.Now())
	if err != nil {
		return models.Document{}, fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug().Str("doc_id", doc.ID).Msg("document already stored, skipping")
	}
	return doc, nil
}

// Load fetches metadata and content for a document id.
func (s *PostgresStore) Load(ctx context.Context, id string) (models.Document, []byte, error) {
	var meta []byte
	var content []byte
	query := `SELECT metadata, content FROM pit_documents WHERE id = $1;`
	err := s.pool.QueryRow(ctx, query, id).Scan(&meta, &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return models.Document{}, nil, fmt.Errorf("load document %s: %w", id, err)
	}
	var doc models.Document
	if err := json.Unmarshal(meta, &doc); err != nil {
		return models.Document{}, nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, content, nil
}
