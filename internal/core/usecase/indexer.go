package usecase

import (
	"context"
	"fmt"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
)

const defaultEmbedBatchSize = 10

// ChunkIndexer embeds normalized chunks in bounded batches and persists the
// document's chunk set atomically. A document is either fully indexed or left
// untouched; there is no partial end state.
type ChunkIndexer struct {
	embedder  ports.Embedder
	store     ports.ChunkStore
	batchSize int
}

func NewChunkIndexer(embedder ports.Embedder, store ports.ChunkStore, batchSize int) *ChunkIndexer {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &ChunkIndexer{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
	}
}

func (ix *ChunkIndexer) IndexDocument(
	ctx context.Context,
	doc *domain.Document,
	settings domain.ProjectSettings,
	chunks []domain.Chunk,
) error {
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "index document", fmt.Errorf("no chunks to index"))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := ix.embedAll(ctx, settings.EmbeddingModel, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(domain.ErrEmbedding, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}

	for i := range chunks {
		if len(vectors[i]) != settings.EmbeddingDimensions {
			// A wrong-dimension vector would poison every search on the
			// project; fail the document instead of mixing models.
			return domain.WrapError(domain.ErrEmbedding, "embed chunks",
				fmt.Errorf("chunk %d: vector dimension %d, project expects %d", chunks[i].Ordinal, len(vectors[i]), settings.EmbeddingDimensions))
		}
		chunks[i].DocumentID = doc.ID
		chunks[i].Embedding = vectors[i]
	}

	if err := ix.store.ReplaceDocumentChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("replace document chunks: %w", err)
	}
	return nil
}

func (ix *ChunkIndexer) embedAll(ctx context.Context, model string, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := ix.embedder.Embed(ctx, model, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d..%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
