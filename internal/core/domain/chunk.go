package domain

import "time"

type ChunkType string

const (
	ChunkText  ChunkType = "text"
	ChunkTable ChunkType = "table"
	ChunkImage ChunkType = "image"
)

// OriginalContent preserves the source representation of a chunk for display
// and citation fidelity. It is never embedded or searched; the flattened
// Chunk.Content is.
type OriginalContent struct {
	Text   string   `json:"text,omitempty"`
	Tables []string `json:"tables,omitempty"`
	Images []string `json:"images,omitempty"`
}

func (o OriginalContent) Empty() bool {
	return o.Text == "" && len(o.Tables) == 0 && len(o.Images) == 0
}

// Chunk is the immutable unit of indexing. Ordinals are dense within a
// document starting at zero; re-ingestion replaces the whole set.
type Chunk struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Ordinal    int             `json:"chunk_index"`
	Page       int             `json:"page_number,omitempty"`
	Content    string          `json:"content"`
	CharCount  int             `json:"char_count"`
	Types      []ChunkType     `json:"type"`
	Original   OriginalContent `json:"original_content"`
	Embedding  []float32       `json:"-"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

func (c Chunk) HasType(t ChunkType) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}
