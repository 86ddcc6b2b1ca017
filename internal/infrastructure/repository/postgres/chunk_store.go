package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

// ChunkStore is the dual index: pgvector cosine search over embeddings plus
// Postgres full-text search over the flattened content.
type ChunkStore struct {
	db *sql.DB
}

func NewChunkStore(db *sql.DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// ReplaceDocumentChunks swaps the document's chunk set in one transaction, so
// readers never observe a partially indexed document.
func (s *ChunkStore) ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}

	const insert = `
INSERT INTO chunks (
	id, document_id, ordinal, page, content, char_count, chunk_types, original_content, embedding, content_tsv, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::vector,to_tsvector('english', $5),$10)
`
	now := time.Now().UTC()
	for _, chunk := range chunks {
		id := chunk.ID
		if id == "" {
			id = uuid.NewString()
		}

		typesJSON, err := json.Marshal(chunk.Types)
		if err != nil {
			return fmt.Errorf("marshal chunk types: %w", err)
		}
		originalJSON, err := json.Marshal(chunk.Original)
		if err != nil {
			return fmt.Errorf("marshal original content: %w", err)
		}

		_, err = tx.ExecContext(ctx, insert,
			id, documentID, chunk.Ordinal, chunk.Page, chunk.Content, chunk.CharCount,
			typesJSON, originalJSON, vectorLiteral(chunk.Embedding), now,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	return nil
}

// SearchVector returns chunks by cosine similarity, already filtered by the
// project's similarity threshold.
func (s *ChunkStore) SearchVector(ctx context.Context, projectID string, queryVector []float32, threshold float64, limit int) ([]domain.RetrievedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.document_id, d.filename, c.content, c.page, c.ordinal,
       1 - (c.embedding <=> $2::vector) AS score,
       d.created_at
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.project_id = $1
  AND c.embedding IS NOT NULL
  AND 1 - (c.embedding <=> $2::vector) >= $3
ORDER BY c.embedding <=> $2::vector
LIMIT $4
`, projectID, vectorLiteral(queryVector), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	return scanRetrievedChunks(rows)
}

func (s *ChunkStore) SearchKeyword(ctx context.Context, projectID, queryText string, limit int) ([]domain.RetrievedChunk, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.document_id, d.filename, c.content, c.page, c.ordinal,
       ts_rank(c.content_tsv, plainto_tsquery('english', $2)) AS score,
       d.created_at
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.project_id = $1
  AND c.content_tsv @@ plainto_tsquery('english', $2)
ORDER BY score DESC
LIMIT $3
`, projectID, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("query keyword search: %w", err)
	}
	defer rows.Close()

	return scanRetrievedChunks(rows)
}

func scanRetrievedChunks(rows *sql.Rows) ([]domain.RetrievedChunk, error) {
	var results []domain.RetrievedChunk
	for rows.Next() {
		var r domain.RetrievedChunk
		err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Filename, &r.Content, &r.Page, &r.Ordinal, &r.Score, &r.DocCreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan retrieved chunk: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func vectorLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
