package ports

import (
	"context"
	"io"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

// DocumentRepository persists document state. The orchestrator is its only
// status writer.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// ClaimProcessing transitions a document to processing and records the
	// task handle. Returns false without error when the document is already
	// processing, so a second trigger is a no-op.
	ClaimProcessing(ctx context.Context, id, taskID string) (bool, error)
	SetStatus(ctx context.Context, id string, status domain.ProcessingStatus, errMessage string) error
	// MergeDetails merges stage diagnostics into the document's
	// processing_details without replacing earlier stages.
	MergeDetails(ctx context.Context, id string, details map[string]any) error
	Delete(ctx context.Context, id string) error
}

// SettingsRepository owns per-project retrieval configuration. The core reads
// it; only the configuration collaborator writes it.
type SettingsRepository interface {
	GetByProject(ctx context.Context, projectID string) (domain.ProjectSettings, error)
	Save(ctx context.Context, settings domain.ProjectSettings) error
}

// ChunkStore is the durable dual index. ReplaceDocumentChunks must be atomic:
// either the full set for the document lands or nothing changes.
type ChunkStore interface {
	ReplaceDocumentChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) error
	SearchVector(ctx context.Context, projectID string, queryVector []float32, threshold float64, limit int) ([]domain.RetrievedChunk, error)
	SearchKeyword(ctx context.Context, projectID, queryText string, limit int) ([]domain.RetrievedChunk, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue carries ingestion tasks with at-least-once delivery.
type MessageQueue interface {
	PublishIngestionTask(ctx context.Context, documentID string) error
	SubscribeIngestionTasks(ctx context.Context, handler func(context.Context, string) error) error
}

// ContentExtractor turns a stored file or URL into structured content.
type ContentExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error)
}

// ChunkNormalizer converts extracted content into ordered chunk drafts with
// dense ordinals.
type ChunkNormalizer interface {
	Normalize(doc domain.ExtractedDocument) []domain.Chunk
}

// Embedder builds fixed-dimension vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, model, text string) ([]float32, error)
}

// QueryExpander derives paraphrased query variants for multi-query retrieval.
type QueryExpander interface {
	ExpandQuery(ctx context.Context, query string, total int) ([]string, error)
}

// ChunkSummarizer produces the searchable flattened summary for chunks that
// carry tables or images.
type ChunkSummarizer interface {
	SummarizeChunk(ctx context.Context, text string, tables, images []string) (string, error)
}

// Reranker reorders the top fused candidates with an external model.
type Reranker interface {
	Rerank(ctx context.Context, model, query string, candidates []domain.RetrievedChunk) ([]domain.RetrievedChunk, error)
}
