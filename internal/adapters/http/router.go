package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
	"github.com/sandalwoods/six-figure-rag-api/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingestor       ports.DocumentIngestor
	statuses       ports.IngestionStatusReader
	retriever      ports.ContextRetriever
	settings       ports.SettingsRepository
	metrics        *metrics.HTTPServerMetrics
	maxUploadBytes int64
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	statuses ports.IngestionStatusReader,
	retriever ports.ContextRetriever,
	settings ports.SettingsRepository,
	serverMetrics *metrics.HTTPServerMetrics,
	maxUploadBytes int64,
) *Router {
	return &Router{
		ingestor:       ingestor,
		statuses:       statuses,
		retriever:      retriever,
		settings:       settings,
		metrics:        serverMetrics,
		maxUploadBytes: maxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/projects/{project_id}/documents", rt.uploadDocument)
	mux.HandleFunc("POST /v1/projects/{project_id}/documents/url", rt.submitURL)
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocumentStatus)
	mux.HandleFunc("POST /v1/documents/{document_id}/process", rt.startProcessing)
	mux.HandleFunc("DELETE /v1/documents/{document_id}", rt.deleteDocument)
	mux.HandleFunc("POST /v1/projects/{project_id}/retrieve", rt.retrieve)
	mux.HandleFunc("GET /v1/projects/{project_id}/settings", rt.getSettings)
	mux.HandleFunc("PUT /v1/projects/{project_id}/settings", rt.putSettings)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")

	if rt.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge,
				map[string]string{"error": fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit)})
			return
		}
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.ConfirmUpload(
		r.Context(),
		projectID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordIngestSubmitted(serviceName, string(doc.SourceType))
	}
	writeJSON(w, r, http.StatusAccepted, doc)
}

func (rt *Router) submitURL(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.ingestor.SubmitURL(r.Context(), projectID, req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordIngestSubmitted(serviceName, string(doc.SourceType))
	}
	writeJSON(w, r, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.statuses.IngestionStatus(r.Context(), r.PathValue("document_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

func (rt *Router) startProcessing(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("document_id")
	if err := rt.ingestor.StartIngestion(r.Context(), documentID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"document_id": documentID, "status": "queued"})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.ingestor.DeleteDocument(r.Context(), r.PathValue("document_id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project_id")

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	chunks, err := rt.retriever.Retrieve(r.Context(), projectID, req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if rt.metrics != nil {
		strategy := ""
		if settings, err := rt.settings.GetByProject(r.Context(), projectID); err == nil {
			strategy = string(settings.Strategy)
		}
		rt.metrics.RecordRetrieval(serviceName, strategy, len(chunks), time.Since(start))
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"project_id": projectID,
		"query":      req.Query,
		"chunks":     chunks,
		"citations":  buildCitations(chunks),
	})
}

func (rt *Router) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := rt.settings.GetByProject(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

func (rt *Router) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.ProjectSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	settings.ProjectID = r.PathValue("project_id")

	if err := rt.settings.Save(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, settings)
}

func buildCitations(chunks []domain.RetrievedChunk) []domain.Citation {
	citations := make([]domain.Citation, 0, len(chunks))
	for _, c := range chunks {
		citations = append(citations, domain.Citation{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			Page:       c.Page,
		})
	}
	return citations
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r.Context()).Error("request_failed", "status", status, "error", err)
	}
	writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

// writeJSON stamps every response body with the request id so a client can
// quote it back when reporting a problem.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if m, ok := payload.(map[string]string); ok {
		if requestID := requestIDFromContext(r.Context()); requestID != "" {
			m["request_id"] = requestID
		}
	}
	_ = json.NewEncoder(w).Encode(payload)
}
