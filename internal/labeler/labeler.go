package labeler

import (
	"context"
	"errors"

	"offer-classifier/internal/models"
)

// ErrEmbeddingModelUnavailable is returned when descriptions cannot be
// encoded. No labels are written in that case.
var ErrEmbeddingModelUnavailable = errors.New("embedding model unavailable")

// OfferStore is the read side of the offer repository used by labeling.
type OfferStore interface {
	AllOffers(ctx context.Context) ([]*models.Offer, error)
	OffersMatchingVINs(ctx context.Context, vins []string) ([]*models.Offer, error)
}

// LabelStore is the write side of the label repository used by labeling.
type LabelStore interface {
	PutLabel(ctx context.Context, label *models.SuspiciousLabel) (bool, error)
	SeedVINs(ctx context.Context) ([]string, error)
}

// Recorder receives per-label and per-run outcomes. *metrics.Metrics
// satisfies it.
type Recorder interface {
	LabelWritten(mode models.Mode, suspicious bool)
	LabelRun(mode models.Mode, err error)
}

type nopRecorder struct{}

func (nopRecorder) LabelWritten(models.Mode, bool) {}
func (nopRecorder) LabelRun(models.Mode, error)    {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// put writes one label and folds the outcome into the summary.
func put(ctx context.Context, store LabelStore, rec Recorder, sum *models.LabelRunSummary, label *models.SuspiciousLabel) error {
	inserted, err := store.PutLabel(ctx, label)
	if err != nil {
		return err
	}
	sum.Offers++
	if label.IsSuspicious {
		sum.Suspicious++
	}
	if inserted {
		sum.Inserted++
		rec.LabelWritten(label.Mode, label.IsSuspicious)
	} else {
		sum.Existing++
	}
	return nil
}
