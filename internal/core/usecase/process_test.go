package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

type fakeExtractor struct {
	extracted domain.ExtractedDocument
	err       error
}

func (f *fakeExtractor) Extract(context.Context, *domain.Document) (domain.ExtractedDocument, error) {
	if f.err != nil {
		return domain.ExtractedDocument{}, f.err
	}
	return f.extracted, nil
}

type fakeNormalizer struct {
	chunks []domain.Chunk
}

func (f *fakeNormalizer) Normalize(domain.ExtractedDocument) []domain.Chunk {
	out := make([]domain.Chunk, len(f.chunks))
	copy(out, f.chunks)
	return out
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) SummarizeChunk(context.Context, string, []string, []string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

func textElements(n int) domain.ExtractedDocument {
	elements := make([]domain.ExtractedElement, n)
	for i := range elements {
		elements[i] = domain.ExtractedElement{Kind: domain.ElementText, Text: "paragraph", Page: 1}
	}
	return domain.ExtractedDocument{Elements: elements}
}

func newProcessFixture(extractor *fakeExtractor, normalizer *fakeNormalizer, summarizer *fakeSummarizer) (*ProcessDocumentUseCase, *memoryDocRepo, *fakeChunkStore) {
	repo := newMemoryDocRepo()
	store := newFakeChunkStore()
	settings := &fakeSettingsRepo{}
	embedder := &fakeEmbedder{dimensions: 1536}
	indexer := NewChunkIndexer(embedder, store, 10)
	uc := NewProcessDocumentUseCase(repo, settings, extractor, normalizer, summarizer, indexer)
	return uc, repo, store
}

func pendingDoc(repo *memoryDocRepo, id string) {
	_ = repo.Create(context.Background(), &domain.Document{
		ID:        id,
		ProjectID: "proj-1",
		Filename:  "report.pdf",
		Status:    domain.StatusPending,
	})
}

func TestProcessByIDCompletesDocument(t *testing.T) {
	extractor := &fakeExtractor{extracted: textElements(3)}
	normalizer := &fakeNormalizer{chunks: []domain.Chunk{
		{Ordinal: 0, Content: "first", CharCount: 5, Types: []domain.ChunkType{domain.ChunkText}},
		{Ordinal: 1, Content: "second", CharCount: 6, Types: []domain.ChunkType{domain.ChunkText}},
	}}
	summarizer := &fakeSummarizer{}
	uc, repo, store := newProcessFixture(extractor, normalizer, summarizer)
	pendingDoc(repo, "doc-1")

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	doc, _ := repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", doc.Status)
	}
	if doc.Error != "" {
		t.Fatalf("completed document must have no error, got %q", doc.Error)
	}
	if len(store.replaced["doc-1"]) != 2 {
		t.Fatalf("expected 2 indexed chunks, got %d", len(store.replaced["doc-1"]))
	}
	if summarizer.calls != 0 {
		t.Fatalf("text-only chunks must not be summarized, got %d calls", summarizer.calls)
	}
	if _, ok := doc.Details["chunking"]; !ok {
		t.Fatalf("chunking diagnostics missing: %+v", doc.Details)
	}
	if _, ok := doc.Details["partitioning"]; !ok {
		t.Fatalf("partitioning diagnostics missing: %+v", doc.Details)
	}
}

func TestProcessByIDSummarizesTableAndImageChunks(t *testing.T) {
	extractor := &fakeExtractor{extracted: textElements(1)}
	normalizer := &fakeNormalizer{chunks: []domain.Chunk{
		{Ordinal: 0, Content: "plain", CharCount: 5, Types: []domain.ChunkType{domain.ChunkText}},
		{Ordinal: 1, Content: "<table>raw</table>", CharCount: 18, Types: []domain.ChunkType{domain.ChunkTable},
			Original: domain.OriginalContent{Tables: []string{"<table>raw</table>"}}},
		{Ordinal: 2, Content: "image", CharCount: 5, Types: []domain.ChunkType{domain.ChunkImage},
			Original: domain.OriginalContent{Images: []string{"base64data"}}},
	}}
	summarizer := &fakeSummarizer{summary: "flattened summary"}
	uc, repo, store := newProcessFixture(extractor, normalizer, summarizer)
	pendingDoc(repo, "doc-1")

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if summarizer.calls != 2 {
		t.Fatalf("expected 2 summarize calls, got %d", summarizer.calls)
	}
	stored := store.replaced["doc-1"]
	if stored[1].Content != "flattened summary" || stored[2].Content != "flattened summary" {
		t.Fatalf("table/image content must be replaced by summary: %+v", stored)
	}
	if stored[1].Original.Tables[0] != "<table>raw</table>" {
		t.Fatalf("original content must be preserved: %+v", stored[1].Original)
	}
	if stored[0].Content != "plain" {
		t.Fatalf("text chunk content must stay verbatim, got %q", stored[0].Content)
	}
}

func TestProcessByIDMarksFailureOnEmptyExtraction(t *testing.T) {
	extractor := &fakeExtractor{extracted: domain.ExtractedDocument{}}
	uc, repo, store := newProcessFixture(extractor, &fakeNormalizer{}, &fakeSummarizer{})
	pendingDoc(repo, "doc-1")

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}

	doc, _ := repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", doc.Status)
	}
	if doc.Error == "" {
		t.Fatalf("failed document must carry a cause")
	}
	if len(store.replaced) != 0 {
		t.Fatalf("failed document must not index chunks")
	}
}

func TestProcessByIDIsNoOpWhenAlreadyClaimed(t *testing.T) {
	extractor := &fakeExtractor{extracted: textElements(1)}
	uc, repo, store := newProcessFixture(extractor, &fakeNormalizer{chunks: makeChunks(1)}, &fakeSummarizer{})
	_ = repo.Create(context.Background(), &domain.Document{ID: "doc-1", ProjectID: "proj-1", Status: domain.StatusProcessing})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("duplicate trigger must be a clean no-op, got %v", err)
	}
	if len(store.replaced) != 0 {
		t.Fatalf("no-op run must not touch the index")
	}
	doc, _ := repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusProcessing {
		t.Fatalf("status must stay processing, got %q", doc.Status)
	}
}

func TestProcessByIDReplacesChunksOnRetryAfterFailure(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("transient source error")}
	normalizer := &fakeNormalizer{chunks: makeChunks(3)}
	uc, repo, store := newProcessFixture(extractor, normalizer, &fakeSummarizer{})
	pendingDoc(repo, "doc-1")

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	doc, _ := repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", doc.Status)
	}

	// Retry succeeds and lands the full chunk set exactly once.
	extractor.err = nil
	extractor.extracted = textElements(2)
	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("retry error = %v", err)
	}

	doc, _ = repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want completed", doc.Status)
	}
	if doc.Error != "" {
		t.Fatalf("retry must clear the failure cause, got %q", doc.Error)
	}
	if len(store.replaced["doc-1"]) != 3 {
		t.Fatalf("expected replaced chunk set of 3, got %d", len(store.replaced["doc-1"]))
	}
}

func TestProcessByIDFailsWhenSummarizerFails(t *testing.T) {
	extractor := &fakeExtractor{extracted: textElements(1)}
	normalizer := &fakeNormalizer{chunks: []domain.Chunk{
		{Ordinal: 0, Content: "table", CharCount: 5, Types: []domain.ChunkType{domain.ChunkTable},
			Original: domain.OriginalContent{Tables: []string{"<table></table>"}}},
	}}
	summarizer := &fakeSummarizer{err: errors.New("model unavailable")}
	uc, repo, _ := newProcessFixture(extractor, normalizer, summarizer)
	pendingDoc(repo, "doc-1")

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected summarizer failure to fail the document")
	}
	doc, _ := repo.GetByID(context.Background(), "doc-1")
	if doc.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", doc.Status)
	}
}
