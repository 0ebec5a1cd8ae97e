package repository

import (
	"context"
	"fmt"

	"offer-classifier/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// OfferRepository reads and writes scraped offers together with their
// detail fields.
type OfferRepository interface {
	SaveOffer(ctx context.Context, offer *models.Offer) error
	AllOffers(ctx context.Context) ([]*models.Offer, error)
	OffersMatchingVINs(ctx context.Context, vins []string) ([]*models.Offer, error)
	CountOffers(ctx context.Context) (int, error)
}

type offerRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *sqlx.DB, logger *zap.Logger) OfferRepository {
	return &offerRepository{
		db:     db,
		logger: logger,
	}
}

const selectOffers = `
	SELECT o.id AS offer_id, o.brand, o.link, o.title, o.description, o.vin,
	       d.model, d.price, d.mileage, d.condition, d.country_of_origin,
	       o.scraped_at
	FROM offers o
	LEFT JOIN offer_details d ON d.offer_id = o.id
`

// SaveOffer stores an offer and its details. An offer that already exists is
// left as it is.
func (r *offerRepository) SaveOffer(ctx context.Context, offer *models.Offer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO offers (id, brand, link, title, description, vin, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`), offer.ID, offer.Brand, offer.Link, offer.Title, offer.Description, offer.VIN, offer.ScrapedAt)
	if err != nil {
		r.logger.Error("Failed to save offer", zap.Int64("offer_id", offer.ID), zap.Error(err))
		return fmt.Errorf("failed to save offer %d: %w", offer.ID, err)
	}

	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO offer_details (offer_id, model, price, mileage, condition, country_of_origin)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (offer_id) DO NOTHING
	`), offer.ID, offer.Model, offer.Price, offer.Mileage, offer.Condition, offer.CountryOfOrigin)
	if err != nil {
		r.logger.Error("Failed to save offer details", zap.Int64("offer_id", offer.ID), zap.Error(err))
		return fmt.Errorf("failed to save offer %d details: %w", offer.ID, err)
	}

	return tx.Commit()
}

// AllOffers returns every stored offer ordered by id.
func (r *offerRepository) AllOffers(ctx context.Context) ([]*models.Offer, error) {
	var offers []*models.Offer
	if err := r.db.SelectContext(ctx, &offers, selectOffers+" ORDER BY o.id"); err != nil {
		r.logger.Error("Failed to load offers", zap.Error(err))
		return nil, fmt.Errorf("failed to load offers: %w", err)
	}
	return offers, nil
}

// OffersMatchingVINs returns the offers whose VIN is in vins, ordered by id.
func (r *offerRepository) OffersMatchingVINs(ctx context.Context, vins []string) ([]*models.Offer, error) {
	if len(vins) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(selectOffers+" WHERE o.vin IN (?) ORDER BY o.id", vins)
	if err != nil {
		return nil, fmt.Errorf("failed to build vin query: %w", err)
	}

	var offers []*models.Offer
	if err := r.db.SelectContext(ctx, &offers, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to load offers by vin", zap.Int("vins", len(vins)), zap.Error(err))
		return nil, fmt.Errorf("failed to load offers by vin: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) CountOffers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM offers`); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}
	return count, nil
}
