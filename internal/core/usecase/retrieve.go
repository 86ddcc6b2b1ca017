package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
)

// RetrieveUseCase executes the configured retrieval strategy for a project:
// optional query expansion, concurrent per-variant vector/keyword searches,
// weighted score fusion, optional reranking, and a bounded final context.
type RetrieveUseCase struct {
	settings ports.SettingsRepository
	embedder ports.Embedder
	store    ports.ChunkStore
	expander ports.QueryExpander
	reranker ports.Reranker
}

func NewRetrieveUseCase(
	settings ports.SettingsRepository,
	embedder ports.Embedder,
	store ports.ChunkStore,
	expander ports.QueryExpander,
	reranker ports.Reranker,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		settings: settings,
		embedder: embedder,
		store:    store,
		expander: expander,
		reranker: reranker,
	}
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, projectID, query string) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve", errors.New("query is required"))
	}

	cfg, err := uc.settings.GetByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch project settings: %w", err)
	}

	variants := uc.queryVariants(ctx, cfg, query)
	perVariant, searchErrs := uc.searchVariants(ctx, cfg, variants)
	if len(perVariant) == 0 {
		return nil, domain.WrapError(domain.ErrRetrieval, "retrieve", errors.Join(searchErrs...))
	}

	fused := mergeVariantCandidates(perVariant)
	fused = uc.maybeRerank(ctx, cfg, query, fused)
	return trimCandidates(fused, cfg.FinalContextSize), nil
}

func (uc *RetrieveUseCase) queryVariants(ctx context.Context, cfg domain.ProjectSettings, query string) []string {
	multiQuery := cfg.Strategy == domain.StrategyMultiQueryVector || cfg.Strategy == domain.StrategyMultiQueryHybrid
	if !multiQuery || cfg.NumberOfQueries <= 1 {
		return []string{query}
	}

	variants, err := uc.expander.ExpandQuery(ctx, query, cfg.NumberOfQueries)
	if err != nil || len(variants) == 0 {
		// Expansion is an enrichment; fall back to the verbatim query.
		return []string{query}
	}
	if variants[0] != query {
		variants = append([]string{query}, variants...)
	}
	if len(variants) > cfg.NumberOfQueries {
		variants = variants[:cfg.NumberOfQueries]
	}
	return variants
}

// searchVariants runs every query variant concurrently. A failed variant is
// tolerated as long as at least one succeeds.
func (uc *RetrieveUseCase) searchVariants(
	ctx context.Context,
	cfg domain.ProjectSettings,
	variants []string,
) ([][]domain.RetrievedChunk, []error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results [][]domain.RetrievedChunk
		errs    []error
	)

	for _, variant := range variants {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			fused, err := uc.searchOneVariant(ctx, cfg, q)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("variant %q: %w", q, err))
				return
			}
			results = append(results, fused)
		}(variant)
	}
	wg.Wait()
	return results, errs
}

// searchOneVariant issues the vector and keyword searches for one query
// variant concurrently and fuses their scores per the configured weights.
func (uc *RetrieveUseCase) searchOneVariant(
	ctx context.Context,
	cfg domain.ProjectSettings,
	query string,
) ([]domain.RetrievedChunk, error) {
	useKeyword := cfg.Strategy == domain.StrategyHybrid || cfg.Strategy == domain.StrategyMultiQueryHybrid

	var (
		wg            sync.WaitGroup
		vectorChunks  []domain.RetrievedChunk
		keywordChunks []domain.RetrievedChunk
		vectorErr     error
		keywordErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		queryVector, err := uc.embedder.EmbedQuery(ctx, cfg.EmbeddingModel, query)
		if err != nil {
			vectorErr = fmt.Errorf("embed query: %w", err)
			return
		}
		vectorChunks, err = uc.store.SearchVector(ctx, cfg.ProjectID, queryVector, cfg.SimilarityThreshold, cfg.ChunksPerSearch)
		if err != nil {
			vectorErr = fmt.Errorf("vector search: %w", err)
		}
	}()

	if useKeyword {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			keywordChunks, err = uc.store.SearchKeyword(ctx, cfg.ProjectID, query, cfg.ChunksPerSearch)
			if err != nil {
				keywordErr = fmt.Errorf("keyword search: %w", err)
			}
		}()
	}
	wg.Wait()

	if vectorErr != nil {
		return nil, vectorErr
	}
	if keywordErr != nil {
		return nil, keywordErr
	}
	return fuseWeighted(vectorChunks, keywordChunks, cfg.VectorWeight, cfg.KeywordWeight), nil
}

func (uc *RetrieveUseCase) maybeRerank(
	ctx context.Context,
	cfg domain.ProjectSettings,
	query string,
	fused []domain.RetrievedChunk,
) []domain.RetrievedChunk {
	if !cfg.RerankingEnabled || uc.reranker == nil || len(fused) == 0 {
		return fused
	}

	head, tail := boundRerankCandidates(fused, cfg.FinalContextSize)
	reranked, err := uc.reranker.Rerank(ctx, cfg.RerankingModel, query, head)
	if err != nil {
		// Reranking is best-effort; the fused ordering stands.
		return fused
	}
	return append(applyRerankedOrder(head, reranked), tail...)
}
