package usecase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	chunks  ports.ChunkStore
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	chunks ports.ChunkStore,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		chunks:  chunks,
	}
}

func (uc *IngestDocumentUseCase) ConfirmUpload(
	ctx context.Context,
	projectID, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm upload", fmt.Errorf("project id is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	size, err := uc.storage.Save(ctx, storageKey, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:         id,
		ProjectID:  projectID,
		SourceType: domain.SourceFile,
		Filename:   filename,
		MimeType:   mimeType,
		StorageKey: storageKey,
		SizeBytes:  size,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishIngestionTask(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion task: %w", err)
	}

	return doc, nil
}

func (uc *IngestDocumentUseCase) SubmitURL(ctx context.Context, projectID, sourceURL string) (*domain.Document, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit url", fmt.Errorf("project id is required"))
	}
	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit url", fmt.Errorf("invalid source url %q", sourceURL))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		SourceType: domain.SourceURL,
		Filename:   parsed.Host,
		SourceURL:  parsed.String(),
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishIngestionTask(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion task: %w", err)
	}

	return doc, nil
}

// StartIngestion re-enqueues a document, typically after a failed attempt.
// The worker-side claim makes a duplicate trigger for an in-flight document a
// no-op.
func (uc *IngestDocumentUseCase) StartIngestion(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status == domain.StatusProcessing {
		return nil
	}
	if err := uc.queue.PublishIngestionTask(ctx, doc.ID); err != nil {
		return fmt.Errorf("publish ingestion task: %w", err)
	}
	return nil
}

// DeleteDocument removes the indexed chunks first so a retrieval issued
// mid-delete cannot cite a document whose record is already gone.
func (uc *IngestDocumentUseCase) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	if doc.StorageKey != "" {
		if err := uc.storage.Delete(ctx, doc.StorageKey); err != nil {
			return fmt.Errorf("delete stored source: %w", err)
		}
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	return nil
}

func (uc *IngestDocumentUseCase) IngestionStatus(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
