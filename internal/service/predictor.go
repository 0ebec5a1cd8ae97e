package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"offer-classifier/internal/artifact"
	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
	"offer-classifier/internal/normalizer"
)

// PipelineLoader reads fitted pipelines from their slots.
type PipelineLoader interface {
	Load(ctx context.Context, key artifact.Key) (*ml.Pipeline, error)
}

// PredictionRecorder observes served predictions.
type PredictionRecorder interface {
	Predicted(model string, mode models.Mode)
}

// Predictor scores offers with previously trained pipelines. Loaded
// pipelines are cached and shared read-only between callers.
type Predictor struct {
	loader   PipelineLoader
	pool     *normalizer.Pool
	registry *ml.Registry
	recorder PredictionRecorder
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[artifact.Key]*ml.Pipeline
}

// NewPredictor creates a predictor. registry lists the models PredictAll
// tries.
func NewPredictor(loader PipelineLoader, pool *normalizer.Pool, registry *ml.Registry, recorder PredictionRecorder, logger *zap.Logger) *Predictor {
	return &Predictor{
		loader:   loader,
		pool:     pool,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		cache:    make(map[artifact.Key]*ml.Pipeline),
	}
}

// Predict scores one offer with the pipeline trained for (name, mode). Names
// outside the registry fail with ErrArtifactNotFound without touching the
// artifact store. The
// score is P(suspicious) when the pipeline supports it and the decision
// function value otherwise; Prediction.Kind tells which.
func (p *Predictor) Predict(ctx context.Context, summary models.OfferSummary, name string, mode models.Mode) (*models.Prediction, error) {
	if !p.registry.Has(name) {
		return nil, fmt.Errorf("%w: unknown model %q", ErrArtifactNotFound, name)
	}
	if _, err := models.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactNotFound, err)
	}
	text, err := p.normalize(summary, mode)
	if err != nil {
		return nil, err
	}
	return p.score(ctx, text, name, mode)
}

// PredictAll scores the offer with every registered model that has a
// trained pipeline for mode. It fails with ErrArtifactNotFound only when
// none does.
func (p *Predictor) PredictAll(ctx context.Context, summary models.OfferSummary, mode models.Mode) ([]models.Prediction, error) {
	if _, err := models.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactNotFound, err)
	}
	text, err := p.normalize(summary, mode)
	if err != nil {
		return nil, err
	}

	var out []models.Prediction
	for _, name := range p.registry.Names() {
		pred, err := p.score(ctx, text, name, mode)
		if errors.Is(err, ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *pred)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no trained models for mode %s", ErrArtifactNotFound, mode)
	}
	return out, nil
}

// Invalidate drops cached pipelines of mode so the next prediction reads
// freshly trained artifacts.
func (p *Predictor) Invalidate(mode models.Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.cache {
		if k.Mode == mode {
			delete(p.cache, k)
		}
	}
}

func (p *Predictor) score(ctx context.Context, text, name string, mode models.Mode) (*models.Prediction, error) {
	pipeline, err := p.pipeline(ctx, artifact.Key{Model: name, Mode: mode})
	if err != nil {
		return nil, err
	}

	score, kind := pipeline.Score(text)
	if p.recorder != nil {
		p.recorder.Predicted(name, mode)
	}
	return &models.Prediction{
		Model:      name,
		Mode:       mode,
		Score:      score,
		Kind:       kind,
		Suspicious: pipeline.Predict(text),
	}, nil
}

func (p *Predictor) pipeline(ctx context.Context, key artifact.Key) (*ml.Pipeline, error) {
	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded, err := p.loader.Load(ctx, key)
	if artifact.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline %s: %w", key, err)
	}

	p.mu.Lock()
	if existing, ok := p.cache[key]; ok {
		loaded = existing
	} else {
		p.cache[key] = loaded
	}
	p.mu.Unlock()

	p.logger.Info("Pipeline loaded", zap.String("slot", key.String()))
	return loaded, nil
}

func (p *Predictor) normalize(summary models.OfferSummary, mode models.Mode) (string, error) {
	n, err := p.pool.Acquire()
	if err != nil {
		return "", err
	}
	defer p.pool.Release()
	return n.Normalize(summary.Text(mode)), nil
}
