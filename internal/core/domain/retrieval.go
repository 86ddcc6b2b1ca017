package domain

import "time"

// RetrievedChunk is one search candidate with enough provenance to build a
// citation. Score semantics depend on the stage: raw store score for a single
// candidate set, fused score after fusion.
type RetrievedChunk struct {
	ChunkID      string    `json:"chunk_id"`
	DocumentID   string    `json:"document_id"`
	Filename     string    `json:"filename,omitempty"`
	Content      string    `json:"content"`
	Page         int       `json:"page,omitempty"`
	Ordinal      int       `json:"chunk_index"`
	Score        float64   `json:"score"`
	DocCreatedAt time.Time `json:"-"`
}

type Citation struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Page       int    `json:"page"`
}
