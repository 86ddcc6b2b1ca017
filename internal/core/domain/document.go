package domain

import "time"

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

type SourceType string

const (
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// Document is one ingestible source owned by exactly one project.
// Status, TaskID and Details are written only by the ingestion orchestrator.
type Document struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"project_id"`
	SourceType SourceType       `json:"source_type"`
	Filename   string           `json:"filename,omitempty"`
	MimeType   string           `json:"mime_type,omitempty"`
	StorageKey string           `json:"storage_key,omitempty"`
	SourceURL  string           `json:"source_url,omitempty"`
	SizeBytes  int64            `json:"size_bytes,omitempty"`
	Status     ProcessingStatus `json:"processing_status"`
	TaskID     string           `json:"task_id,omitempty"`
	Details    map[string]any   `json:"processing_details,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
