package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

type ingestorFake struct {
	err error
}

func (f ingestorFake) ConfirmUpload(_ context.Context, projectID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:         "doc-1",
		ProjectID:  projectID,
		SourceType: domain.SourceFile,
		Filename:   filename,
		MimeType:   mimeType,
		StorageKey: "doc-1_file.txt",
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (f ingestorFake) SubmitURL(_ context.Context, projectID, sourceURL string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{
		ID:         "doc-2",
		ProjectID:  projectID,
		SourceType: domain.SourceURL,
		SourceURL:  sourceURL,
		Status:     domain.StatusPending,
	}, nil
}

func (f ingestorFake) StartIngestion(context.Context, string) error {
	return f.err
}

func (f ingestorFake) DeleteDocument(context.Context, string) error {
	return f.err
}

type statusFake struct {
	err error
}

func (f statusFake) IngestionStatus(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: "doc-1", Status: domain.StatusCompleted}, nil
}

type retrieverFake struct {
	chunks []domain.RetrievedChunk
	err    error
}

func (f retrieverFake) Retrieve(context.Context, string, string) ([]domain.RetrievedChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type settingsStoreFake struct {
	saved    *domain.ProjectSettings
	saveErr  error
	settings *domain.ProjectSettings
}

func (f *settingsStoreFake) GetByProject(_ context.Context, projectID string) (domain.ProjectSettings, error) {
	if f.settings != nil {
		return *f.settings, nil
	}
	return domain.DefaultProjectSettings(projectID), nil
}

func (f *settingsStoreFake) Save(_ context.Context, settings domain.ProjectSettings) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	f.saved = &settings
	return nil
}

func newTestRouter(ingestor ingestorFake, statuses statusFake, retriever retrieverFake, settings *settingsStoreFake) http.Handler {
	if settings == nil {
		settings = &settingsStoreFake{}
	}
	return NewRouter(ingestor, statuses, retriever, settings, nil, 32<<20).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadDocumentAccepted(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "file.txt")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" || docResp["project_id"] != "proj-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSubmitURLAccepted(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	payload, _ := json.Marshal(map[string]string{"url": "https://example.com/doc"})
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/documents/url", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
}

func TestGetDocumentStatusReturns404ForUnknownDocument(t *testing.T) {
	statuses := statusFake{err: domain.WrapError(domain.ErrDocumentNotFound, "status", errors.New("id=missing"))}
	handler := newTestRouter(ingestorFake{}, statuses, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestRetrieveReturnsChunksAndCitations(t *testing.T) {
	retriever := retrieverFake{chunks: []domain.RetrievedChunk{
		{ChunkID: "chunk-1", DocumentID: "doc-1", Filename: "report.pdf", Content: "refund policy", Page: 2, Ordinal: 4, Score: 0.91},
	}}
	handler := newTestRouter(ingestorFake{}, statusFake{}, retriever, nil)

	payload, _ := json.Marshal(map[string]string{"query": "refund policy"})
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/retrieve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var resp struct {
		Chunks    []domain.RetrievedChunk `json:"chunks"`
		Citations []domain.Citation       `json:"citations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Chunks) != 1 || len(resp.Citations) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Citations[0].Filename != "report.pdf" || resp.Citations[0].Page != 2 {
		t.Fatalf("unexpected citation: %+v", resp.Citations[0])
	}
}

func TestRetrieveRejectsBlankQuery(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	payload, _ := json.Marshal(map[string]string{"query": "   "})
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/retrieve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRetrieveMapsRetrievalFailureTo502(t *testing.T) {
	retriever := retrieverFake{err: domain.WrapError(domain.ErrRetrieval, "retrieve", errors.New("all variants failed"))}
	handler := newTestRouter(ingestorFake{}, statusFake{}, retriever, nil)

	payload, _ := json.Marshal(map[string]string{"query": "refunds"})
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/retrieve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
}

func TestPutSettingsValidatesBeforeSaving(t *testing.T) {
	store := &settingsStoreFake{}
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, store)

	bad := domain.DefaultProjectSettings("proj-1")
	bad.FinalContextSize = 50 // exceeds chunks_per_search
	payload, _ := json.Marshal(bad)

	req := httptest.NewRequest(http.MethodPut, "/v1/projects/proj-1/settings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if store.saved != nil {
		t.Fatalf("invalid settings must not be saved")
	}
}

func TestPutSettingsOverridesProjectIDFromPath(t *testing.T) {
	store := &settingsStoreFake{}
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, store)

	settings := domain.DefaultProjectSettings("other-project")
	payload, _ := json.Marshal(settings)

	req := httptest.NewRequest(http.MethodPut, "/v1/projects/proj-1/settings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if store.saved == nil || store.saved.ProjectID != "proj-1" {
		t.Fatalf("expected settings saved for path project, got %+v", store.saved)
	}
}

func TestGetSettingsReturnsDefaultsForUnconfiguredProject(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/projects/proj-9/settings", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var got domain.ProjectSettings
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != domain.DefaultProjectSettings("proj-9") {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestUploadDocumentRejectsOversizeBody(t *testing.T) {
	handler := NewRouter(ingestorFake{}, statusFake{}, retrieverFake{}, &settingsStoreFake{}, nil, 1024).Handler()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "big.bin")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), 4096)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/projects/proj-1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestDeleteDocumentReturnsNoContent(t *testing.T) {
	handler := newTestRouter(ingestorFake{}, statusFake{}, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
}

func TestDeleteDocumentUnknownReturns404(t *testing.T) {
	ingestor := ingestorFake{err: domain.WrapError(domain.ErrDocumentNotFound, "delete", errors.New("id=missing"))}
	handler := newTestRouter(ingestor, statusFake{}, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestErrorResponsesCarryRequestID(t *testing.T) {
	statuses := statusFake{err: domain.WrapError(domain.ErrDocumentNotFound, "status", errors.New("id=missing"))}
	handler := newTestRouter(ingestorFake{}, statuses, retrieverFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	req.Header.Set("X-Request-Id", "req-abc-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get("X-Request-Id"); got != "req-abc-123" {
		t.Fatalf("request id header = %q, want echoed id", got)
	}
	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["request_id"] != "req-abc-123" {
		t.Fatalf("response request_id = %q, want req-abc-123", body["request_id"])
	}
}
