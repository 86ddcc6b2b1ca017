package ports

import (
	"context"
	"io"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

// DocumentIngestor is the inbound contract for registering sources and
// triggering asynchronous ingestion.
type DocumentIngestor interface {
	ConfirmUpload(ctx context.Context, projectID, filename, mimeType string, body io.Reader) (*domain.Document, error)
	SubmitURL(ctx context.Context, projectID, sourceURL string) (*domain.Document, error)
	StartIngestion(ctx context.Context, documentID string) error
	// DeleteDocument removes the document record, its indexed chunks and the
	// stored source file.
	DeleteDocument(ctx context.Context, documentID string) error
}

// IngestionStatusReader is the pull-based status query over the persisted
// document state machine.
type IngestionStatusReader interface {
	IngestionStatus(ctx context.Context, documentID string) (*domain.Document, error)
}

// DocumentProcessor runs one ingestion task to completion. Safe to re-run:
// a retry replaces the prior attempt's chunks.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// ContextRetriever serves retrieval-augmented generation with a bounded,
// ranked context set.
type ContextRetriever interface {
	Retrieve(ctx context.Context, projectID, query string) ([]domain.RetrievedChunk, error)
}
