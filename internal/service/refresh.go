package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
)

// Refresher relabels every offer and then retrains every mode. Labeling
// finishes before any dataset is read.
type Refresher struct {
	labeling  *Labeling
	trainer   *Trainer
	builder   DatasetBuilder
	registry  *ml.Registry
	predictor *Predictor
	logger    *zap.Logger
}

// NewRefresher wires a full relabel-and-retrain pass. predictor may be nil.
func NewRefresher(labeling *Labeling, trainer *Trainer, builder DatasetBuilder, registry *ml.Registry, predictor *Predictor, logger *zap.Logger) *Refresher {
	return &Refresher{
		labeling:  labeling,
		trainer:   trainer,
		builder:   builder,
		registry:  registry,
		predictor: predictor,
		logger:    logger,
	}
}

// Run labels under both modes, then trains and evaluates both modes.
func (r *Refresher) Run(ctx context.Context) (map[models.Mode]*models.EvaluationReport, error) {
	for _, mode := range []models.Mode{models.ModeVIN, models.ModeDescription} {
		summary, err := r.labeling.Run(ctx, mode)
		if err != nil {
			return nil, fmt.Errorf("labeling %s: %w", mode, err)
		}
		r.logger.Info("Labels refreshed",
			zap.String("mode", string(mode)),
			zap.Int("inserted", summary.Inserted),
			zap.Int("existing", summary.Existing))
	}

	reports := make(map[models.Mode]*models.EvaluationReport, len(models.Modes))
	for _, mode := range models.Modes {
		report, err := r.Train(ctx, mode, nil)
		if err != nil {
			return nil, err
		}
		reports[mode] = report
	}
	return reports, nil
}

// Train rebuilds the dataset for mode and retrains the named models, or
// every registered model when names is empty.
func (r *Refresher) Train(ctx context.Context, mode models.Mode, names []string) (*models.EvaluationReport, error) {
	registry, err := r.registry.Subset(names)
	if err != nil {
		return nil, err
	}
	report, err := r.trainer.Train(ctx, r.builder, registry, mode)
	if err != nil {
		return nil, fmt.Errorf("training %s: %w", mode, err)
	}
	if r.predictor != nil {
		r.predictor.Invalidate(mode)
	}
	return report, nil
}
