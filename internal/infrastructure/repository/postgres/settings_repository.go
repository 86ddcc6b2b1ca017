package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByProject returns stored settings, or the defaults when the project has
// never been configured.
func (r *SettingsRepository) GetByProject(ctx context.Context, projectID string) (domain.ProjectSettings, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT project_id, embedding_model, embedding_dimensions, strategy, agent_behavior, chunks_per_search, final_context_size, similarity_threshold, number_of_queries, reranking_enabled, reranking_model, vector_weight, keyword_weight
FROM project_settings
WHERE project_id = $1
`, projectID)

	var s domain.ProjectSettings
	var strategy string

	err := row.Scan(
		&s.ProjectID, &s.EmbeddingModel, &s.EmbeddingDimensions, &strategy, &s.AgentBehavior,
		&s.ChunksPerSearch, &s.FinalContextSize, &s.SimilarityThreshold, &s.NumberOfQueries,
		&s.RerankingEnabled, &s.RerankingModel, &s.VectorWeight, &s.KeywordWeight,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultProjectSettings(projectID), nil
		}
		return domain.ProjectSettings{}, fmt.Errorf("scan project settings: %w", err)
	}

	s.Strategy = domain.RetrievalStrategy(strategy)
	return s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.ProjectSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO project_settings (
	project_id, embedding_model, embedding_dimensions, strategy, agent_behavior, chunks_per_search, final_context_size, similarity_threshold, number_of_queries, reranking_enabled, reranking_model, vector_weight, keyword_weight, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (project_id) DO UPDATE SET
	embedding_model = EXCLUDED.embedding_model,
	embedding_dimensions = EXCLUDED.embedding_dimensions,
	strategy = EXCLUDED.strategy,
	agent_behavior = EXCLUDED.agent_behavior,
	chunks_per_search = EXCLUDED.chunks_per_search,
	final_context_size = EXCLUDED.final_context_size,
	similarity_threshold = EXCLUDED.similarity_threshold,
	number_of_queries = EXCLUDED.number_of_queries,
	reranking_enabled = EXCLUDED.reranking_enabled,
	reranking_model = EXCLUDED.reranking_model,
	vector_weight = EXCLUDED.vector_weight,
	keyword_weight = EXCLUDED.keyword_weight,
	updated_at = EXCLUDED.updated_at
`,
		settings.ProjectID, settings.EmbeddingModel, settings.EmbeddingDimensions, string(settings.Strategy),
		settings.AgentBehavior, settings.ChunksPerSearch, settings.FinalContextSize, settings.SimilarityThreshold,
		settings.NumberOfQueries, settings.RerankingEnabled, settings.RerankingModel,
		settings.VectorWeight, settings.KeywordWeight, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert project settings: %w", err)
	}
	return nil
}
