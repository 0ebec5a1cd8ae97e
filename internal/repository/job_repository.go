package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"offer-classifier/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrJobNotFound is returned by GetJob for unknown ids.
var ErrJobNotFound = errors.New("job not found")

// JobRepository persists asynchronous labeling jobs.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
}

type jobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sqlx.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO label_jobs (id, mode, status, offers, inserted, suspicious, created_at, completed_at, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), job.ID, string(job.Mode), job.Status, job.Offers, job.Inserted, job.Suspicious, job.CreatedAt, job.CompletedAt, job.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, r.db.Rebind(`
		SELECT id, mode, status, offers, inserted, suspicious, created_at, completed_at, error_message
		FROM label_jobs
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) UpdateJob(ctx context.Context, job *models.Job) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE label_jobs
		SET status = ?, offers = ?, inserted = ?, suspicious = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`), job.Status, job.Offers, job.Inserted, job.Suspicious, job.CompletedAt, job.ErrorMessage, job.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}
