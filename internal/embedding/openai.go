package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// openAIBatchLimit is the largest input array the /embeddings endpoint accepts.
const openAIBatchLimit = 2048

// OpenAIClient talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIClient struct {
	apiKey     string
	endpoint   string
	modelName  string
	httpClient *http.Client
	batches    *batcher
}

// OpenAIConfig configures OpenAIClient. Zero values get defaults.
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string // https://api.openai.com/v1
	ModelName         string // text-embedding-3-small
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerMinute int
	BatchSize         int // openAIBatchLimit
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates an OpenAI-compatible embedding client.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "text-embedding-3-small"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > openAIBatchLimit {
		cfg.BatchSize = openAIBatchLimit
	}

	c := &OpenAIClient{
		apiKey:     cfg.APIKey,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/embeddings",
		modelName:  cfg.ModelName,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		batches:    newBatcher(cfg.BatchSize, cfg.RequestsPerMinute, cfg.MaxRetries, cfg.RetryDelay, logger),
	}

	logger.Info("OpenAI embedding client initialized",
		zap.String("model", cfg.ModelName),
		zap.String("endpoint", c.endpoint),
		zap.Int("batch_size", cfg.BatchSize))

	return c, nil
}

// Close is a no-op.
func (c *OpenAIClient) Close() error {
	return nil
}

// Embed encodes texts, at most BatchSize per request.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) (*Result, error) {
	if len(texts) == 0 {
		return &Result{ModelVersion: c.version()}, nil
	}
	vectors, err := c.batches.run(ctx, texts, c.post)
	if err != nil {
		return nil, err
	}
	return &Result{Vectors: vectors, ModelVersion: c.version()}, nil
}

func (c *OpenAIClient) post(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embeddingsRequest{Model: c.modelName, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", parsed.Error.Message)
	}

	// data may arrive out of order; index is authoritative
	vectors := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, ErrEmptyResponse
		}
	}
	return vectors, nil
}

func (c *OpenAIClient) version() string {
	return "openai/" + c.modelName
}

// GetModelInfo describes the configured model.
func (c *OpenAIClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":   "openai",
		"model":      c.modelName,
		"endpoint":   c.endpoint,
		"batch_size": c.batches.size,
	}
}
