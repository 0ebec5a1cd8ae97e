package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
)

// Key names one pipeline slot. Each (model, mode) pair is written
// independently.
type Key struct {
	Model string
	Mode  models.Mode
}

func (k Key) String() string {
	return k.Model + "_" + string(k.Mode)
}

func (k Key) blob() string {
	return k.String() + ".json"
}

func reportBlob(mode models.Mode) string {
	return "report_" + string(mode) + ".json"
}

// Store persists fitted pipelines and evaluation reports.
type Store struct {
	blobs    Blobs
	registry *ml.Registry
	logger   *zap.Logger
}

// NewStore wraps a blob backend. The registry decodes stored pipelines.
func NewStore(blobs Blobs, registry *ml.Registry, logger *zap.Logger) *Store {
	return &Store{blobs: blobs, registry: registry, logger: logger}
}

// Save writes a fitted pipeline into its slot, replacing the previous one.
func (s *Store) Save(ctx context.Context, key Key, p *ml.Pipeline) error {
	if err := s.checkKey(key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pipeline %s: %w", key, err)
	}
	if err := s.blobs.Put(ctx, key.blob(), data); err != nil {
		return err
	}
	s.logger.Debug("Pipeline saved", zap.String("slot", key.String()), zap.Int("bytes", len(data)))
	return nil
}

// Load reads the pipeline in a slot. A missing slot, or a key naming an
// unregistered model, returns ErrNotFound.
func (s *Store) Load(ctx context.Context, key Key) (*ml.Pipeline, error) {
	if err := s.checkKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	data, err := s.blobs.Get(ctx, key.blob())
	if err != nil {
		return nil, err
	}
	p, err := ml.DecodePipeline(data, s.registry)
	if err != nil {
		return nil, fmt.Errorf("slot %s: %w", key, err)
	}
	return p, nil
}

// checkKey accepts only registered models and known modes, so a slot name
// never carries caller-chosen path segments.
func (s *Store) checkKey(key Key) error {
	if !s.registry.Has(key.Model) {
		return fmt.Errorf("unknown model %q", key.Model)
	}
	if _, err := models.ParseMode(string(key.Mode)); err != nil {
		return err
	}
	return nil
}

// SaveReport writes the latest evaluation report for a mode.
func (s *Store) SaveReport(ctx context.Context, r *models.EvaluationReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return s.blobs.Put(ctx, reportBlob(r.Mode), data)
}

// LoadReport reads the latest evaluation report for a mode.
func (s *Store) LoadReport(ctx context.Context, mode models.Mode) (*models.EvaluationReport, error) {
	if _, err := models.ParseMode(string(mode)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	data, err := s.blobs.Get(ctx, reportBlob(mode))
	if err != nil {
		return nil, err
	}
	var r models.EvaluationReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

// IsNotFound reports whether err means a missing artifact.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
