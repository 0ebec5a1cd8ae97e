package repository

import (
	"context"
	"fmt"
	"time"

	"offer-classifier/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// LabelRepository stores suspicion labels, one per offer per mode, and the
// manually confirmed VINs that seed similarity propagation.
type LabelRepository interface {
	// PutLabel inserts the label unless the offer already has one in that
	// mode. It reports whether a row was written.
	PutLabel(ctx context.Context, label *models.SuspiciousLabel) (bool, error)
	AllLabels(ctx context.Context, mode models.Mode) (map[int64]bool, error)
	LabelStats(ctx context.Context, mode models.Mode) (*models.LabelStats, error)
	AddSeedVIN(ctx context.Context, vin string) (bool, error)
	SeedVINs(ctx context.Context) ([]string, error)
}

type labelRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *sqlx.DB, logger *zap.Logger) LabelRepository {
	return &labelRepository{
		db:     db,
		logger: logger,
	}
}

func (r *labelRepository) PutLabel(ctx context.Context, label *models.SuspiciousLabel) (bool, error) {
	if label.LabeledAt.IsZero() {
		label.LabeledAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO labels (offer_id, mode, is_suspicious, source, model_version, labeled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (offer_id, mode) DO NOTHING
	`), label.OfferID, string(label.Mode), label.IsSuspicious, label.Source, label.ModelVersion, label.LabeledAt)
	if err != nil {
		return false, fmt.Errorf("failed to save label for offer %d: %w", label.OfferID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *labelRepository) AllLabels(ctx context.Context, mode models.Mode) (map[int64]bool, error) {
	var rows []struct {
		OfferID      int64 `db:"offer_id"`
		IsSuspicious bool  `db:"is_suspicious"`
	}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT offer_id, is_suspicious FROM labels WHERE mode = ?
	`), string(mode))
	if err != nil {
		r.logger.Error("Failed to load labels", zap.String("mode", string(mode)), zap.Error(err))
		return nil, fmt.Errorf("failed to load %s labels: %w", mode, err)
	}

	labels := make(map[int64]bool, len(rows))
	for _, row := range rows {
		labels[row.OfferID] = row.IsSuspicious
	}
	return labels, nil
}

func (r *labelRepository) LabelStats(ctx context.Context, mode models.Mode) (*models.LabelStats, error) {
	stats := models.LabelStats{Mode: mode}
	err := r.db.GetContext(ctx, &stats, r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN is_suspicious THEN 1 ELSE 0 END), 0) AS suspicious
		FROM labels
		WHERE mode = ?
	`), string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s label stats: %w", mode, err)
	}
	return &stats, nil
}

func (r *labelRepository) AddSeedVIN(ctx context.Context, vin string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO labeling_data (vin) VALUES (?) ON CONFLICT (vin) DO NOTHING
	`), vin)
	if err != nil {
		return false, fmt.Errorf("failed to save seed vin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *labelRepository) SeedVINs(ctx context.Context) ([]string, error) {
	var vins []string
	if err := r.db.SelectContext(ctx, &vins, `SELECT vin FROM labeling_data ORDER BY vin`); err != nil {
		return nil, fmt.Errorf("failed to load seed vins: %w", err)
	}
	return vins, nil
}
