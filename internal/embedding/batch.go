package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// sendFunc performs one upstream request for a slice of texts.
type sendFunc func(ctx context.Context, texts []string) ([][]float32, error)

// batcher splits a text list into provider-sized requests. Every request
// waits for the rate limiter and is retried on its own.
type batcher struct {
	size       int
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// newBatcher builds a batcher. requestsPerMinute <= 0 disables throttling.
func newBatcher(size, requestsPerMinute, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *batcher {
	b := &batcher{
		size:       size,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
	if requestsPerMinute > 0 {
		b.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	return b
}

// run returns one vector per text, in input order. A batch that still fails
// after its retries fails the whole call.
func (b *batcher) run(ctx context.Context, texts []string, send sendFunc) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.size {
		end := min(start+b.size, len(texts))
		out, err := b.sendWithRetry(ctx, texts[start:end], send)
		if err != nil {
			return nil, fmt.Errorf("texts %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, out...)
	}

	if err := checkResult(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (b *batcher) sendWithRetry(ctx context.Context, texts []string, send sendFunc) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
			}
		}

		out, err := send(ctx, texts)
		if err == nil && len(out) != len(texts) {
			err = fmt.Errorf("got %d embeddings for %d texts", len(out), len(texts))
		}
		if err == nil {
			return out, nil
		}

		lastErr = err
		b.logger.Warn("Embedding request failed",
			zap.Int("texts", len(texts)),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", b.maxRetries),
			zap.Error(err))

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < b.maxRetries {
			select {
			case <-time.After(b.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", b.maxRetries, lastErr)
}
