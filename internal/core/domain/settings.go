package domain

import "fmt"

type RetrievalStrategy string

const (
	StrategyBasic            RetrievalStrategy = "basic"
	StrategyHybrid           RetrievalStrategy = "hybrid"
	StrategyMultiQueryVector RetrievalStrategy = "multi-query-vector"
	StrategyMultiQueryHybrid RetrievalStrategy = "multi-query-hybrid"
)

// ProjectSettings is the per-project retrieval configuration, one-to-one with
// a project. The retriever receives it as an immutable value per call and
// assumes it already passed Validate at write time.
type ProjectSettings struct {
	ProjectID           string            `json:"project_id"`
	EmbeddingModel      string            `json:"embedding_model"`
	EmbeddingDimensions int               `json:"embedding_dimensions"`
	Strategy            RetrievalStrategy `json:"rag_strategy"`
	AgentBehavior       string            `json:"agent_behavior,omitempty"`
	ChunksPerSearch     int               `json:"chunks_per_search"`
	FinalContextSize    int               `json:"final_context_size"`
	SimilarityThreshold float64           `json:"similarity_threshold"`
	NumberOfQueries     int               `json:"number_of_queries"`
	RerankingEnabled    bool              `json:"reranking_enabled"`
	RerankingModel      string            `json:"reranking_model,omitempty"`
	VectorWeight        float64           `json:"vector_weight"`
	KeywordWeight       float64           `json:"keyword_weight"`
}

func DefaultProjectSettings(projectID string) ProjectSettings {
	return ProjectSettings{
		ProjectID:           projectID,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		Strategy:            StrategyHybrid,
		ChunksPerSearch:     20,
		FinalContextSize:    5,
		SimilarityThreshold: 0.25,
		NumberOfQueries:     1,
		VectorWeight:        0.7,
		KeywordWeight:       0.3,
	}
}

// Validate rejects settings the retriever cannot honor. Invalid settings are
// a write-time error, never a retrieval-time one.
func (s ProjectSettings) Validate() error {
	if s.EmbeddingModel == "" {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("embedding_model is required"))
	}
	if s.EmbeddingDimensions <= 0 {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("embedding_dimensions must be positive, got %d", s.EmbeddingDimensions))
	}
	switch s.Strategy {
	case StrategyBasic, StrategyHybrid, StrategyMultiQueryVector, StrategyMultiQueryHybrid:
	default:
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("unknown rag_strategy %q", s.Strategy))
	}
	if s.ChunksPerSearch <= 0 {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("chunks_per_search must be positive, got %d", s.ChunksPerSearch))
	}
	if s.FinalContextSize <= 0 || s.FinalContextSize > s.ChunksPerSearch {
		return WrapError(ErrConfiguration, "validate settings",
			fmt.Errorf("final_context_size must be in [1, chunks_per_search=%d], got %d", s.ChunksPerSearch, s.FinalContextSize))
	}
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("similarity_threshold must be within [0,1], got %g", s.SimilarityThreshold))
	}
	if s.NumberOfQueries <= 0 {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("number_of_queries must be positive, got %d", s.NumberOfQueries))
	}
	if s.VectorWeight < 0 || s.KeywordWeight < 0 {
		return WrapError(ErrConfiguration, "validate settings",
			fmt.Errorf("weights must be non-negative, got vector=%g keyword=%g", s.VectorWeight, s.KeywordWeight))
	}
	if s.RerankingEnabled && s.RerankingModel == "" {
		return WrapError(ErrConfiguration, "validate settings", fmt.Errorf("reranking_model is required when reranking is enabled"))
	}
	return nil
}
