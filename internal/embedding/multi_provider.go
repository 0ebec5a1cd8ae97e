package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProviderType names an embedding backend.
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOpenAI ProviderType = "openai"
)

// ProviderConfig is one entry of the embedding.providers config list.
type ProviderConfig struct {
	Type       ProviderType  `yaml:"type"`
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	ModelName  string        `yaml:"model_name"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Applies to every upstream request, so one large Embed call may wait several times.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	BatchSize         int `yaml:"batch_size"`
}

// MultiProviderConfig lists providers in fallback order.
type MultiProviderConfig struct {
	Providers   []ProviderConfig
	MaxFailures int
}

// MultiProvider answers each Embed call from exactly one provider, so
// vectors from different models never share a result. A provider is left
// behind after MaxFailures consecutive failures or on a rate-limit error.
type MultiProvider struct {
	mu          sync.Mutex
	models      []Model
	active      int
	failures    []int
	maxFailures int
	logger      *zap.Logger
}

// NewMultiProviderFromConfig builds the configured providers, skipping the
// ones that cannot be created.
func NewMultiProviderFromConfig(cfg MultiProviderConfig, logger *zap.Logger) (*MultiProvider, error) {
	var built []Model
	for i, pc := range cfg.Providers {
		m, err := newProvider(pc, logger)
		if err != nil {
			logger.Error("Skipping embedding provider",
				zap.Int("index", i),
				zap.String("type", string(pc.Type)),
				zap.Error(err))
			continue
		}
		built = append(built, m)
	}
	if len(built) == 0 {
		return nil, fmt.Errorf("no embedding providers could be initialized")
	}
	return NewMultiProvider(built, cfg.MaxFailures, logger), nil
}

func newProvider(pc ProviderConfig, logger *zap.Logger) (Model, error) {
	switch pc.Type {
	case ProviderGemini:
		return NewGeminiClient(GeminiConfig{
			APIKey:            pc.APIKey,
			ModelName:         pc.ModelName,
			MaxRetries:        pc.MaxRetries,
			RetryDelay:        pc.RetryDelay,
			RequestsPerMinute: pc.RequestsPerMinute,
		}, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:            pc.APIKey,
			BaseURL:           pc.BaseURL,
			ModelName:         pc.ModelName,
			MaxRetries:        pc.MaxRetries,
			RetryDelay:        pc.RetryDelay,
			RequestsPerMinute: pc.RequestsPerMinute,
			BatchSize:         pc.BatchSize,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown provider type %q", pc.Type)
	}
}

// NewMultiProvider wraps already built models in fallback order.
func NewMultiProvider(models []Model, maxFailures int, logger *zap.Logger) *MultiProvider {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return &MultiProvider{
		models:      models,
		failures:    make([]int, len(models)),
		maxFailures: maxFailures,
		logger:      logger,
	}
}

func (c *MultiProvider) activeIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// report records the outcome of a call on provider idx and advances the
// active provider when it should be abandoned.
func (c *MultiProvider) report(idx int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.failures[idx] = 0
		return
	}
	c.failures[idx]++
	if c.failures[idx] < c.maxFailures && !isRateLimitError(err) {
		return
	}
	c.failures[idx] = 0
	if idx != c.active {
		return
	}
	c.active = (c.active + 1) % len(c.models)
	c.logger.Warn("Switching embedding provider",
		zap.Int("from", idx),
		zap.Int("to", c.active),
		zap.Error(err))
}

// Embed tries each provider at most once, starting with the active one.
func (c *MultiProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	start := c.activeIndex()
	var lastErr error
	for i := range c.models {
		idx := (start + i) % len(c.models)
		res, err := c.models[idx].Embed(ctx, texts)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.report(idx, err)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Close closes every provider and returns the last error.
func (c *MultiProvider) Close() error {
	var lastErr error
	for _, m := range c.models {
		if err := m.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// GetModelInfo describes the active provider.
func (c *MultiProvider) GetModelInfo() map[string]interface{} {
	idx := c.activeIndex()
	info := c.models[idx].GetModelInfo()
	info["provider_index"] = idx
	info["total_providers"] = len(c.models)
	return info
}
