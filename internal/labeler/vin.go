package labeler

import (
	"context"
	"fmt"
	"time"

	"offer-classifier/internal/models"
	"offer-classifier/internal/vinrules"

	"go.uber.org/zap"
)

// VINLabeler writes a vin-mode label for every stored offer from the VIN
// heuristics alone.
type VINLabeler struct {
	offers OfferStore
	labels LabelStore
	rec    Recorder
	logger *zap.Logger
}

// NewVINLabeler creates a VIN labeler. rec may be nil.
func NewVINLabeler(offers OfferStore, labels LabelStore, rec Recorder, logger *zap.Logger) *VINLabeler {
	return &VINLabeler{
		offers: offers,
		labels: labels,
		rec:    recorderOrNop(rec),
		logger: logger,
	}
}

// Run scans the offer store once. The first failed insert aborts the scan;
// labels written before it stay in place and are skipped on the next run.
func (l *VINLabeler) Run(ctx context.Context) (*models.LabelRunSummary, error) {
	sum, err := l.run(ctx)
	l.rec.LabelRun(models.ModeVIN, err)
	return sum, err
}

func (l *VINLabeler) run(ctx context.Context) (*models.LabelRunSummary, error) {
	offers, err := l.offers.AllOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}

	sum := &models.LabelRunSummary{Mode: models.ModeVIN}
	now := time.Now().UTC()
	for _, o := range offers {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		verdict := vinrules.Classify(o.VIN)
		label := &models.SuspiciousLabel{
			OfferID:      o.ID,
			Mode:         models.ModeVIN,
			IsSuspicious: verdict.Suspicious,
			Source:       verdict.Rule,
			LabeledAt:    now,
		}
		if err := put(ctx, l.labels, l.rec, sum, label); err != nil {
			l.logger.Error("VIN labeling aborted",
				zap.Int64("offer_id", o.ID),
				zap.Int("labeled", sum.Offers),
				zap.Error(err))
			return sum, fmt.Errorf("offer %d: %w", o.ID, err)
		}

		if verdict.Suspicious {
			l.logger.Debug("Suspicious VIN",
				zap.Int64("offer_id", o.ID),
				zap.String("rule", verdict.Rule))
		}
	}

	l.logger.Info("VIN labeling completed",
		zap.Int("offers", sum.Offers),
		zap.Int("inserted", sum.Inserted),
		zap.Int("existing", sum.Existing),
		zap.Int("suspicious", sum.Suspicious))

	return sum, nil
}
