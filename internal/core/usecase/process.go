package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
)

// ProcessDocumentUseCase drives one document through
// extraction -> normalization -> summarization -> indexing and owns the
// pending -> processing -> {completed, failed} state machine.
type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	settings   ports.SettingsRepository
	extractor  ports.ContentExtractor
	normalizer ports.ChunkNormalizer
	summarizer ports.ChunkSummarizer
	indexer    *ChunkIndexer
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	settings ports.SettingsRepository,
	extractor ports.ContentExtractor,
	normalizer ports.ChunkNormalizer,
	summarizer ports.ChunkSummarizer,
	indexer *ChunkIndexer,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:       repo,
		settings:   settings,
		extractor:  extractor,
		normalizer: normalizer,
		summarizer: summarizer,
		indexer:    indexer,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	taskID := uuid.NewString()
	claimed, err := uc.repo.ClaimProcessing(ctx, documentID, taskID)
	if err != nil {
		return fmt.Errorf("claim document for processing: %w", err)
	}
	if !claimed {
		// Another task owns this document; observed via status, no duplicate run.
		return nil
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.SetStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetStatus(ctx, documentID, domain.StatusCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	extracted, err := uc.extract(ctx, doc)
	if err != nil {
		return err
	}
	_ = uc.repo.MergeDetails(ctx, doc.ID, map[string]any{
		"partitioning": map[string]any{"elements_found": extracted.ElementCounts()},
	})

	chunks, err := uc.normalize(extracted)
	if err != nil {
		return err
	}
	_ = uc.repo.MergeDetails(ctx, doc.ID, map[string]any{
		"chunking": map[string]any{"total_chunks": len(chunks)},
	})

	chunks, err = uc.summarize(ctx, doc.ID, chunks)
	if err != nil {
		return err
	}

	project, err := uc.settings.GetByProject(ctx, doc.ProjectID)
	if err != nil {
		return fmt.Errorf("fetch project settings: %w", err)
	}

	if err := uc.indexer.IndexDocument(ctx, doc, project, chunks); err != nil {
		return err
	}
	return nil
}

func (uc *ProcessDocumentUseCase) extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	extracted, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("extract content: %w", err)
	}
	if len(extracted.Elements) == 0 {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "extract content", errors.New("no extractable content"))
	}
	return extracted, nil
}

func (uc *ProcessDocumentUseCase) normalize(extracted domain.ExtractedDocument) ([]domain.Chunk, error) {
	chunks := uc.normalizer.Normalize(extracted)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrExtraction, "normalize content", errors.New("normalization produced zero chunks"))
	}
	return chunks, nil
}

// summarize replaces the searchable content of table/image chunks with an
// AI-generated summary; text-only chunks keep their own text.
func (uc *ProcessDocumentUseCase) summarize(ctx context.Context, documentID string, chunks []domain.Chunk) ([]domain.Chunk, error) {
	total := len(chunks)
	for i := range chunks {
		if len(chunks[i].Original.Tables) == 0 && len(chunks[i].Original.Images) == 0 {
			continue
		}
		_ = uc.repo.MergeDetails(ctx, documentID, map[string]any{
			"summarising": map[string]any{"current_chunk": i + 1, "total_chunks": total},
		})
		summary, err := uc.summarizer.SummarizeChunk(ctx, chunks[i].Original.Text, chunks[i].Original.Tables, chunks[i].Original.Images)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d: %w", chunks[i].Ordinal, err)
		}
		if summary != "" {
			chunks[i].Content = summary
			chunks[i].CharCount = len([]rune(summary))
		}
	}
	return chunks, nil
}
