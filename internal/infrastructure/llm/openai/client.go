package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
	"github.com/sandalwoods/six-figure-rag-api/internal/infrastructure/resilience"
)

// Provider implements the embedding, query-expansion, summarization and
// reranking ports over the OpenAI API. All calls go through the resilience
// executor; embedding calls are additionally rate limited.
type Provider struct {
	client       *openai.Client
	genModel     string
	embedLimiter *rate.Limiter
	executor     *resilience.Executor
}

type Options struct {
	BaseURL             string
	GenerationModel     string
	EmbedRequestsPerSec float64
	EmbedBurst          int
	ResilienceExecutor  *resilience.Executor
}

func New(apiKey string, options Options) *Provider {
	cfg := openai.DefaultConfig(apiKey)
	if options.BaseURL != "" {
		cfg.BaseURL = options.BaseURL
	}
	genModel := options.GenerationModel
	if genModel == "" {
		genModel = openai.GPT4oMini
	}
	rps := options.EmbedRequestsPerSec
	if rps <= 0 {
		rps = 5
	}
	burst := options.EmbedBurst
	if burst <= 0 {
		burst = 2
	}
	executor := options.ResilienceExecutor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultPolicy())
	}

	return &Provider{
		client:       openai.NewClientWithConfig(cfg),
		genModel:     genModel,
		embedLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		executor:     executor,
	}
}

func (p *Provider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := p.embedLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed rate limit: %w", err)
	}

	var resp openai.EmbeddingResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(model),
			Input: texts,
		})
		return err
	}
	if err := p.executor.Execute(ctx, "openai.embed", call, classifyOpenAIError); err != nil {
		return nil, wrapEmbeddingError("embed texts", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed texts",
			fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Data)))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vector := make([]float32, len(d.Embedding))
		for j := range d.Embedding {
			vector[j] = float32(d.Embedding[j])
		}
		out[i] = vector
	}
	return out, nil
}

func (p *Provider) EmbedQuery(ctx context.Context, model, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, model, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// ExpandQuery asks the generation model for total-1 paraphrases of the query.
func (p *Provider) ExpandQuery(ctx context.Context, query string, total int) ([]string, error) {
	if total <= 1 {
		return []string{query}, nil
	}

	content, err := p.chat(ctx, p.genModel, buildExpansionPrompt(total-1), "Original query: "+query, nil)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}

	variants := parseQueryVariations(content, total-1)
	return append([]string{query}, variants...), nil
}

// SummarizeChunk generates the searchable index text for a chunk carrying
// tables or images.
func (p *Provider) SummarizeChunk(ctx context.Context, text string, tables, images []string) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: buildSummaryPrompt(text, tables)},
	}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: imageDataURL(img)},
		})
	}

	content, err := p.chat(ctx, p.genModel, "", "", parts)
	if err != nil {
		return "", fmt.Errorf("summarize chunk: %w", err)
	}
	return strings.TrimSpace(content), nil
}

func (p *Provider) Rerank(ctx context.Context, model, query string, candidates []domain.RetrievedChunk) ([]domain.RetrievedChunk, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}
	if model == "" {
		model = p.genModel
	}

	content, err := p.chat(ctx, model, buildRerankSystemPrompt(), buildRerankUserPrompt(query, candidates), nil)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	order := parseRerankOrder(content, len(candidates))
	if len(order) == 0 {
		return nil, fmt.Errorf("rerank candidates: unparseable model output")
	}

	out := make([]domain.RetrievedChunk, 0, len(order))
	for _, idx := range order {
		out = append(out, candidates[idx])
	}
	return out, nil
}

func (p *Provider) chat(ctx context.Context, model, system, user string, multiParts []openai.ChatMessagePart) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	if len(multiParts) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: multiParts,
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: user,
		})
	}

	var resp openai.ChatCompletionResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		})
		return err
	}
	if err := p.executor.Execute(ctx, "openai.chat", call, classifyOpenAIError); err != nil {
		return "", wrapTemporaryIfNeeded("openai chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func imageDataURL(base64Image string) string {
	if strings.HasPrefix(base64Image, "data:image") {
		return base64Image
	}
	return "data:image/jpeg;base64," + base64Image
}
