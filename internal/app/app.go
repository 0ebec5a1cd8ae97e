package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"offer-classifier/internal/artifact"
	"offer-classifier/internal/config"
	"offer-classifier/internal/dataset"
	"offer-classifier/internal/embedding"
	"offer-classifier/internal/labeler"
	"offer-classifier/internal/metrics"
	"offer-classifier/internal/ml"
	"offer-classifier/internal/normalizer"
	"offer-classifier/internal/repository"
	"offer-classifier/internal/service"
)

// App holds every wired component shared by the server and the CLI.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB         *sqlx.DB
	Offers     repository.OfferRepository
	Labels     repository.LabelRepository
	Jobs       repository.JobRepository
	Metrics    *metrics.Metrics
	Registry   *ml.Registry
	Pool       *normalizer.Pool
	Artifacts  *artifact.Store
	Builder    *dataset.Builder
	VINLabeler *labeler.VINLabeler
	Propagator *labeler.Propagator
	Labeling   *service.Labeling
	Trainer    *service.Trainer
	Predictor  *service.Predictor
	Refresher  *service.Refresher

	closers []func() error
}

// NewLogger builds the zap logger selected by cfg.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New opens the database and wires every component. reg receives the
// Prometheus collectors; pass nil to skip metrics.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	a.Offers = repository.NewOfferRepository(db, logger)
	a.Labels = repository.NewLabelRepository(db, logger)
	a.Jobs = repository.NewJobRepository(db)

	if reg != nil {
		a.Metrics = metrics.New(reg)
	}

	a.Registry, err = ml.DefaultRegistry().Subset(cfg.Training.Models)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("training.models: %w", err)
	}

	a.Pool = normalizer.NewFilePool(cfg.Normalizer.LemmaDictionary)

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Artifacts = artifact.NewStore(blobs, a.Registry, logger)

	model := a.openEmbedding()

	a.Builder = dataset.NewBuilder(a.Offers, a.Labels, logger)
	a.VINLabeler = labeler.NewVINLabeler(a.Offers, a.Labels, a.recorder(), logger)
	a.Propagator = labeler.NewPropagator(a.Offers, a.Labels, model, a.recorder(), logger)
	a.Labeling = service.NewLabeling(
		a.VINLabeler,
		a.Propagator,
		a.Jobs,
		cfg.Threshold(),
		logger,
	)
	a.Trainer = service.NewTrainer(a.Pool, a.Artifacts, a.Metrics, service.TrainingConfig{
		Seed:         cfg.Training.Seed,
		TestFraction: cfg.Training.TestFraction,
		Parallelism:  cfg.Training.Parallelism,
	}, logger)
	a.Predictor = service.NewPredictor(a.Artifacts, a.Pool, a.Registry, a.Metrics, logger)
	a.Refresher = service.NewRefresher(a.Labeling, a.Trainer, a.Builder, a.Registry, a.Predictor, logger)

	return a, nil
}

// Close releases the database and clients in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// recorder returns the metrics as a labeler.Recorder, or nil so the
// labelers fall back to recording nothing.
func (a *App) recorder() labeler.Recorder {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}

func (a *App) openDB() (*sqlx.DB, error) {
	cfg := a.Config.Database
	if cfg.Type == repository.TypeSQLite {
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		return repository.Open(cfg.Type, cfg.Path, a.Logger)
	}
	return repository.Open(cfg.Type, cfg.URL, a.Logger)
}

func (a *App) openBlobs(ctx context.Context) (artifact.Blobs, error) {
	cfg := a.Config.Artifacts
	if cfg.Backend == "gcs" {
		gcs, err := artifact.NewGCSStore(ctx, artifact.GCSConfig{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		a.Logger.Info("Artifacts stored in GCS", zap.String("bucket", cfg.Bucket), zap.String("prefix", cfg.Prefix))
		return gcs, nil
	}
	a.Logger.Info("Artifacts stored on disk", zap.String("dir", cfg.Dir))
	return artifact.NewFileStore(cfg.Dir)
}

// openEmbedding returns nil when no provider could be initialized.
// Description labeling then fails with ErrEmbeddingModelUnavailable.
func (a *App) openEmbedding() embedding.Model {
	cfg := a.Config.Embedding
	if len(cfg.Providers) == 0 {
		a.Logger.Warn("No embedding providers configured, description labeling disabled")
		return nil
	}

	mp, err := embedding.NewMultiProviderFromConfig(embedding.MultiProviderConfig{
		Providers:   cfg.Providers,
		MaxFailures: cfg.MaxFailuresBeforeSwitch,
	}, a.Logger)
	if err != nil {
		a.Logger.Warn("Failed to initialize embedding providers, description labeling disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, mp.Close)
	a.Logger.Info("Embedding providers initialized", zap.Int("provider_count", len(cfg.Providers)))
	return mp
}
