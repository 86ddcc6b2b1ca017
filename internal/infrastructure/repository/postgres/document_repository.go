package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	// The embedding column is dimensionless because dimensions are a
	// per-project setting; queries cast with ::vector.
	const query = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_key TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	size_bytes BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	task_id TEXT NOT NULL DEFAULT '',
	processing_details JSONB NOT NULL DEFAULT '{}'::jsonb,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	ordinal INTEGER NOT NULL,
	page INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL,
	char_count INTEGER NOT NULL,
	chunk_types JSONB NOT NULL DEFAULT '[]'::jsonb,
	original_content JSONB NOT NULL DEFAULT '{}'::jsonb,
	embedding vector,
	content_tsv tsvector,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (document_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON chunks USING GIN(content_tsv);

CREATE TABLE IF NOT EXISTS project_settings (
	project_id TEXT PRIMARY KEY,
	embedding_model TEXT NOT NULL,
	embedding_dimensions INTEGER NOT NULL,
	strategy TEXT NOT NULL,
	agent_behavior TEXT NOT NULL DEFAULT '',
	chunks_per_search INTEGER NOT NULL,
	final_context_size INTEGER NOT NULL,
	similarity_threshold DOUBLE PRECISION NOT NULL,
	number_of_queries INTEGER NOT NULL,
	reranking_enabled BOOLEAN NOT NULL,
	reranking_model TEXT NOT NULL DEFAULT '',
	vector_weight DOUBLE PRECISION NOT NULL,
	keyword_weight DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	detailsJSON, err := marshalDetails(doc.Details)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, project_id, source_type, filename, mime_type, storage_key, source_url, size_bytes, status, task_id, processing_details, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		doc.ID, doc.ProjectID, string(doc.SourceType), doc.Filename, doc.MimeType, doc.StorageKey,
		doc.SourceURL, doc.SizeBytes, string(doc.Status), doc.TaskID, detailsJSON, doc.Error,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, project_id, source_type, filename, mime_type, storage_key, source_url, size_bytes, status, task_id, processing_details, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var detailsRaw []byte
	var sourceType, status string

	err := row.Scan(
		&doc.ID, &doc.ProjectID, &sourceType, &doc.Filename, &doc.MimeType, &doc.StorageKey,
		&doc.SourceURL, &doc.SizeBytes, &status, &doc.TaskID, &detailsRaw, &doc.Error,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if len(detailsRaw) > 0 {
		if err := json.Unmarshal(detailsRaw, &doc.Details); err != nil {
			return nil, fmt.Errorf("unmarshal processing details: %w", err)
		}
	}
	doc.SourceType = domain.SourceType(sourceType)
	doc.Status = domain.ProcessingStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) ClaimProcessing(ctx context.Context, id, taskID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, task_id = $3, error_message = '', updated_at = $4
WHERE id = $1 AND status <> $2
`, id, string(domain.StatusProcessing), taskID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("claim document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish "already processing" from "no such document".
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *DocumentRepository) SetStatus(ctx context.Context, id string, status domain.ProcessingStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return nil
}

// Delete removes the document row; the chunks FK cascades, but callers
// delete chunks explicitly first so the index never outlives the record.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return nil
}

func (r *DocumentRepository) MergeDetails(ctx context.Context, id string, details map[string]any) error {
	detailsJSON, err := marshalDetails(details)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
UPDATE documents
SET processing_details = processing_details || $2::jsonb, updated_at = $3
WHERE id = $1
`, id, detailsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("merge processing details: %w", err)
	}
	return nil
}

func marshalDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		return []byte(`{}`), nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal processing details: %w", err)
	}
	return raw, nil
}
