package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/extractor/pdfx"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/extractor/plaintext"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/extractor/spreadsheet"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/extractor/web"
)

const maxSourceBytes = 32 << 20

// Dispatcher routes a document to the extractor matching its source type and
// file extension.
type Dispatcher struct {
	storage    ports.ObjectStorage
	httpClient *http.Client
}

func NewDispatcher(storage ports.ObjectStorage) *Dispatcher {
	return &Dispatcher{
		storage:    storage,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (d *Dispatcher) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	if doc.SourceType == domain.SourceURL {
		return d.extractURL(ctx, doc)
	}
	return d.extractFile(ctx, doc)
}

func (d *Dispatcher) extractFile(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	reader, err := d.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "open source document", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxSourceBytes))
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "read source document", err)
	}

	kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(doc.Filename)), ".")
	switch kind {
	case "pdf":
		return pdfx.Extract(raw)
	case "xlsx", "xlsm":
		return spreadsheet.Extract(raw)
	case "txt", "md", "markdown", "":
		return plaintext.Extract(raw, doc.Filename)
	case "html", "htm":
		return web.Extract(raw)
	default:
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "dispatch extractor",
			fmt.Errorf("unsupported file type %q", kind))
	}
}

func (d *Dispatcher) extractURL(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.SourceURL, nil)
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "build url request", err)
	}
	req.Header.Set("User-Agent", "six-figure-rag-ingestor/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "fetch source url", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "fetch source url",
			fmt.Errorf("unexpected status %s for %s", resp.Status, doc.SourceURL))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "read source url", err)
	}
	return web.Extract(raw)
}
