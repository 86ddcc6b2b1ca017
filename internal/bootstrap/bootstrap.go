package bootstrap

import (
	"context"
	"fmt"

	"github.com/sandalwoods/six-figure-rag-api/internal/config"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/ports"
	"github.com/sandalwoods/six-figure-rag-api/internal/core/usecase"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/chunking"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/extractor"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/llm/openai"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/queue/nats"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/repository/postgres"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/resilience"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	Settings ports.SettingsRepository

	IngestUC   ports.DocumentIngestor
	StatusUC   ports.IngestionStatusReader
	ProcessUC  ports.DocumentProcessor
	RetrieveUC ports.ContextRetriever

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	settingsRepo := postgres.NewSettingsRepository(db)
	chunkStore := postgres.NewChunkStore(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	policy := resilience.DefaultPolicy()
	policy.RetryMaxAttempts = cfg.RetryMaxAttempts
	executor := resilience.NewExecutor(policy)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	provider := openai.New(cfg.OpenAIAPIKey, openai.Options{
		BaseURL:             cfg.OpenAIBaseURL,
		GenerationModel:     cfg.OpenAIGenModel,
		EmbedRequestsPerSec: cfg.EmbedRatePerSec,
		ResilienceExecutor:  executor,
	})

	normalizer := chunking.NewNormalizer(cfg.ChunkSize, cfg.ChunkOverlap)
	dispatcher := extractor.NewDispatcher(storage)
	indexer := usecase.NewChunkIndexer(provider, chunkStore, cfg.EmbedBatchSize)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, chunkStore)
	processUC := usecase.NewProcessDocumentUseCase(repo, settingsRepo, dispatcher, normalizer, provider, indexer)
	retrieveUC := usecase.NewRetrieveUseCase(settingsRepo, provider, chunkStore, provider, provider)

	return &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		Settings: settingsRepo,

		IngestUC:   ingestUC,
		StatusUC:   ingestUC,
		ProcessUC:  processUC,
		RetrieveUC: retrieveUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
