package dataset

import (
	"context"
	"fmt"

	"offer-classifier/internal/models"

	"go.uber.org/zap"
)

// OfferSource supplies every stored offer.
type OfferSource interface {
	AllOffers(ctx context.Context) ([]*models.Offer, error)
}

// LabelSource supplies the labels of one mode.
type LabelSource interface {
	AllLabels(ctx context.Context, mode models.Mode) (map[int64]bool, error)
}

// Builder turns stored offers and one label space into training rows.
type Builder struct {
	offers OfferSource
	labels LabelSource
	logger *zap.Logger
}

// NewBuilder creates a dataset builder.
func NewBuilder(offers OfferSource, labels LabelSource, logger *zap.Logger) *Builder {
	return &Builder{
		offers: offers,
		labels: labels,
		logger: logger,
	}
}

// Eligible reports whether an offer may enter a training set: all detail
// fields present and a recognized brand. Other offers are dropped silently.
func Eligible(o *models.Offer) bool {
	return o.Model != nil &&
		o.Price != nil &&
		o.Mileage != nil &&
		o.Condition != nil &&
		o.CountryOfOrigin != nil &&
		IsRecognizedBrand(o.Brand)
}

// Build returns one row per eligible offer, in offer order. Offers without a
// label in mode are kept with IsSuspicious=false.
func (b *Builder) Build(ctx context.Context, mode models.Mode) ([]models.TrainingRow, error) {
	offers, err := b.offers.AllOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	labels, err := b.labels.AllLabels(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s labels: %w", mode, err)
	}

	rows := make([]models.TrainingRow, 0, len(offers))
	unlabeled := 0
	for _, o := range offers {
		if !Eligible(o) {
			continue
		}
		suspicious, ok := labels[o.ID]
		if !ok {
			unlabeled++
		}
		rows = append(rows, models.TrainingRow{
			OfferID:      o.ID,
			Text:         o.Summary().Text(mode),
			IsSuspicious: suspicious,
		})
	}

	b.logger.Info("Dataset built",
		zap.String("mode", string(mode)),
		zap.Int("offers", len(offers)),
		zap.Int("rows", len(rows)),
		zap.Int("unlabeled", unlabeled))

	return rows, nil
}
