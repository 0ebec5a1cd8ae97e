package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// geminiBatchLimit is the maximum number of texts per BatchEmbedContents call.
const geminiBatchLimit = 100

// GeminiClient embeds texts with a Gemini embedding model.
type GeminiClient struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	modelName string
	batches   *batcher
}

// GeminiConfig configures GeminiClient. Zero values get defaults.
type GeminiConfig struct {
	APIKey            string
	ModelName         string // text-embedding-004
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerMinute int
}

// NewGeminiClient creates a Gemini embedding client.
func NewGeminiClient(cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "text-embedding-004"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.EmbeddingModel(cfg.ModelName)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	logger.Info("Gemini embedding client initialized",
		zap.String("model", cfg.ModelName),
		zap.Int("max_retries", cfg.MaxRetries))

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: cfg.ModelName,
		batches:   newBatcher(geminiBatchLimit, cfg.RequestsPerMinute, cfg.MaxRetries, cfg.RetryDelay, logger),
	}, nil
}

// Close closes the Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Embed encodes texts, geminiBatchLimit per BatchEmbedContents call.
func (c *GeminiClient) Embed(ctx context.Context, texts []string) (*Result, error) {
	version := "gemini/" + c.modelName
	if len(texts) == 0 {
		return &Result{ModelVersion: version}, nil
	}
	vectors, err := c.batches.run(ctx, texts, c.embedBatch)
	if err != nil {
		return nil, err
	}
	return &Result{Vectors: vectors, ModelVersion: version}, nil
}

func (c *GeminiClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b := c.model.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}

	resp, err := c.model.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, ErrEmptyResponse
		}
		out[i] = e.Values
	}
	return out, nil
}

// GetModelInfo describes the configured model.
func (c *GeminiClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":   "gemini",
		"model":      c.modelName,
		"batch_size": c.batches.size,
	}
}
