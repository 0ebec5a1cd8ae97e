package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"offer-classifier/internal/models"
)

// VINRunner labels every offer from its VIN.
type VINRunner interface {
	Run(ctx context.Context) (*models.LabelRunSummary, error)
}

// PropagationRunner labels every offer by description similarity to seeds.
type PropagationRunner interface {
	Run(ctx context.Context, threshold float64) (*models.LabelRunSummary, error)
}

// JobStore persists asynchronous labeling jobs.
type JobStore interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
}

// Labeling runs labeling passes either inline or as background jobs. Passes
// are serialized so a label space is never written by two runs at once.
type Labeling struct {
	vin       VINRunner
	propagate PropagationRunner
	jobs      JobStore
	threshold float64
	logger    *zap.Logger

	runMu sync.Mutex
	wg    sync.WaitGroup
}

// NewLabeling creates the labeling service. threshold is the cosine cut-off
// used for description propagation.
func NewLabeling(vin VINRunner, propagate PropagationRunner, jobs JobStore, threshold float64, logger *zap.Logger) *Labeling {
	return &Labeling{
		vin:       vin,
		propagate: propagate,
		jobs:      jobs,
		threshold: threshold,
		logger:    logger,
	}
}

// Run executes one labeling pass for mode and waits for it.
func (l *Labeling) Run(ctx context.Context, mode models.Mode) (*models.LabelRunSummary, error) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	switch mode {
	case models.ModeVIN:
		return l.vin.Run(ctx)
	case models.ModeDescription:
		return l.propagate.Run(ctx, l.threshold)
	default:
		return nil, fmt.Errorf("unknown label mode %q", mode)
	}
}

// StartJob records a pending job for mode and runs it in the background.
func (l *Labeling) StartJob(ctx context.Context, mode models.Mode) (string, error) {
	if _, err := models.ParseMode(string(mode)); err != nil {
		return "", err
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		Mode:      mode,
		Status:    models.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.jobs.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.processJob(job)
	}()

	return job.ID, nil
}

// GetJob returns a job by id.
func (l *Labeling) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return l.jobs.GetJob(ctx, id)
}

// Wait blocks until every background job has finished.
func (l *Labeling) Wait() {
	l.wg.Wait()
}

func (l *Labeling) processJob(job *models.Job) {
	ctx := context.Background()
	logger := l.logger.With(zap.String("job_id", job.ID), zap.String("mode", string(job.Mode)))

	job.Status = models.JobProcessing
	if err := l.jobs.UpdateJob(ctx, job); err != nil {
		logger.Error("Failed to update job", zap.Error(err))
	}

	summary, err := l.Run(ctx, job.Mode)
	completedAt := time.Now().UTC()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = models.JobFailed
		job.ErrorMessage = err.Error()
		logger.Error("Labeling job failed", zap.Error(err))
	} else {
		job.Status = models.JobCompleted
		job.Offers = summary.Offers
		job.Inserted = summary.Inserted
		job.Suspicious = summary.Suspicious
		logger.Info("Labeling job completed",
			zap.Int("offers", summary.Offers),
			zap.Int("inserted", summary.Inserted),
			zap.Int("suspicious", summary.Suspicious))
	}

	if err := l.jobs.UpdateJob(ctx, job); err != nil {
		logger.Error("Failed to update job", zap.Error(err))
	}
}
