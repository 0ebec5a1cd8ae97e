package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"offer-classifier/internal/artifact"
	"offer-classifier/internal/ml"
	"offer-classifier/internal/models"
	"offer-classifier/internal/normalizer"
)

// PipelineSaver persists fitted pipelines and evaluation reports.
type PipelineSaver interface {
	Save(ctx context.Context, key artifact.Key, p *ml.Pipeline) error
	SaveReport(ctx context.Context, r *models.EvaluationReport) error
}

// DatasetBuilder produces the labeled rows for one mode.
type DatasetBuilder interface {
	Build(ctx context.Context, mode models.Mode) ([]models.TrainingRow, error)
}

// TrainingRecorder observes finished model fits.
type TrainingRecorder interface {
	Trained(model string, mode models.Mode, d time.Duration, res models.EvaluationMetrics)
}

// TrainingConfig controls the split and fan-out of a training run.
type TrainingConfig struct {
	Seed         int64
	TestFraction float64
	Parallelism  int
}

// Trainer fits every registered classifier on one labeled dataset and
// evaluates it on a held-out partition.
type Trainer struct {
	pool     *normalizer.Pool
	store    PipelineSaver
	recorder TrainingRecorder
	cfg      TrainingConfig
	logger   *zap.Logger
}

// NewTrainer creates a trainer. Zero config values fall back to seed 42,
// a 20% test partition and 4 concurrent fits.
func NewTrainer(pool *normalizer.Pool, store PipelineSaver, recorder TrainingRecorder, cfg TrainingConfig, logger *zap.Logger) *Trainer {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 0.2
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Trainer{
		pool:     pool,
		store:    store,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Train builds the dataset for mode and runs TrainAndEvaluate on it.
func (t *Trainer) Train(ctx context.Context, builder DatasetBuilder, registry *ml.Registry, mode models.Mode) (*models.EvaluationReport, error) {
	rows, err := builder.Build(ctx, mode)
	if err != nil {
		return nil, &StageError{Stage: StageDatasetBuild, Err: err}
	}
	return t.TrainAndEvaluate(ctx, registry, rows, mode)
}

// TrainAndEvaluate normalizes the rows, splits them once, then fits, scores
// and persists every model in registry concurrently. Each model writes only
// its own (name, mode) slot. The first failure cancels the remaining fits.
func (t *Trainer) TrainAndEvaluate(ctx context.Context, registry *ml.Registry, rows []models.TrainingRow, mode models.Mode) (*models.EvaluationReport, error) {
	report := &models.EvaluationReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		Seed:      t.cfg.Seed,
		Results:   make(map[string]models.EvaluationMetrics),
		StartedAt: time.Now().UTC(),
	}
	logger := t.logger.With(zap.String("run_id", report.RunID), zap.String("mode", string(mode)))

	texts, err := t.normalize(rows)
	if err != nil {
		return nil, &StageError{Stage: StageDatasetBuild, Err: err}
	}

	trainIdx, testIdx, err := ml.TrainTestSplit(len(rows), t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, &StageError{Stage: StageDatasetBuild, Err: err}
	}
	trainTexts, trainY := gather(texts, rows, trainIdx)
	testTexts, testY := gather(texts, rows, testIdx)
	for _, i := range trainIdx {
		report.TrainIDs = append(report.TrainIDs, rows[i].OfferID)
	}
	for _, i := range testIdx {
		report.TestIDs = append(report.TestIDs, rows[i].OfferID)
	}

	logger.Info("Training started",
		zap.Int("rows", len(rows)),
		zap.Int("train", len(trainIdx)),
		zap.Int("test", len(testIdx)),
		zap.Strings("models", registry.Names()))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Parallelism)
	for _, name := range registry.Names() {
		name := name
		g.Go(func() error {
			res, err := t.trainOne(gctx, registry, name, mode, trainTexts, trainY, testTexts, testY)
			if err != nil {
				logger.Error("Model training failed", zap.String("model", name), zap.Error(err))
				return err
			}
			mu.Lock()
			report.Results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := t.store.SaveReport(ctx, report); err != nil {
		return nil, &StageError{Stage: StagePersist, Err: err}
	}
	logger.Info("Training completed", zap.Int("models", len(report.Results)))
	return report, nil
}

func (t *Trainer) trainOne(ctx context.Context, registry *ml.Registry, name string, mode models.Mode,
	trainTexts []string, trainY []bool, testTexts []string, testY []bool) (models.EvaluationMetrics, error) {
	if err := ctx.Err(); err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StageFit, Err: err}
	}

	start := time.Now()
	clf, err := registry.New(name, t.cfg.Seed)
	if err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StageFit, Err: err}
	}
	p := ml.NewPipeline(name, clf)
	if err := p.Fit(trainTexts, trainY); err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StageFit, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StagePersist, Err: err}
	}
	if err := t.store.Save(ctx, artifact.Key{Model: name, Mode: mode}, p); err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StagePersist, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return models.EvaluationMetrics{}, &StageError{Model: name, Stage: StageEvaluate, Err: err}
	}
	pred := make([]bool, len(testTexts))
	for i, text := range testTexts {
		pred[i] = p.Predict(text)
	}
	res := ml.Evaluate(testY, pred)
	res.SupportsProbability = p.SupportsProbability()

	elapsed := time.Since(start)
	res.BuildTimeSeconds = int64(elapsed / time.Second)
	if res.DegenerateSplit {
		t.logger.Warn("Single-class test partition",
			zap.String("model", name),
			zap.String("mode", string(mode)),
			zap.Error(ml.ErrDegenerateSplit))
	}
	if t.recorder != nil {
		t.recorder.Trained(name, mode, elapsed, res)
	}

	t.logger.Info("Model evaluated",
		zap.String("model", name),
		zap.String("mode", string(mode)),
		zap.Float64("accuracy", res.Accuracy),
		zap.Float64("precision", res.Precision),
		zap.Float64("recall", res.Recall),
		zap.Float64("f1", res.F1),
		zap.Int64("build_time_seconds", res.BuildTimeSeconds))
	return res, nil
}

func (t *Trainer) normalize(rows []models.TrainingRow) ([]string, error) {
	n, err := t.pool.Acquire()
	if err != nil {
		return nil, err
	}
	defer t.pool.Release()

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = n.Normalize(r.Text)
	}
	return texts, nil
}

func gather(texts []string, rows []models.TrainingRow, idx []int) ([]string, []bool) {
	outT := make([]string, len(idx))
	outY := make([]bool, len(idx))
	for k, i := range idx {
		outT[k] = texts[i]
		outY[k] = rows[i].IsSuspicious
	}
	return outT, outY
}
