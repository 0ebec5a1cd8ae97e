package models

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Offer is a scraped vehicle classified ad joined with its detail fields.
// Detail columns are nullable because the scrapers do not always find them.
type Offer struct {
	ID              int64      `db:"offer_id" json:"id"`
	Brand           string     `db:"brand" json:"brand"`
	Link            string     `db:"link" json:"link,omitempty"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	VIN             *string    `db:"vin" json:"vin,omitempty"`
	Model           *string    `db:"model" json:"model,omitempty"`
	Price           *int64     `db:"price" json:"price,omitempty"`
	Mileage         *int64     `db:"mileage" json:"mileage,omitempty"`
	Condition       *string    `db:"condition" json:"condition,omitempty"`
	CountryOfOrigin *string    `db:"country_of_origin" json:"country_of_origin,omitempty"`
	ScrapedAt       *time.Time `db:"scraped_at" json:"scraped_at,omitempty"`
}

// Summary projects the offer onto the fields used as model input.
func (o *Offer) Summary() OfferSummary {
	return OfferSummary{
		Title:           o.Title,
		Description:     o.Description,
		Price:           o.Price,
		Mileage:         o.Mileage,
		Model:           deref(o.Model),
		Condition:       deref(o.Condition),
		CountryOfOrigin: deref(o.CountryOfOrigin),
		VIN:             o.VIN,
	}
}

// OfferSummary holds the offer fields a classifier sees.
type OfferSummary struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           *int64  `json:"price,omitempty"`
	Mileage         *int64  `json:"mileage,omitempty"`
	Model           string  `json:"model"`
	Condition       string  `json:"condition"`
	CountryOfOrigin string  `json:"country_of_origin"`
	VIN             *string `json:"vin,omitempty"`
}

// Text concatenates the summary in the fixed order shared by training and
// prediction: title, description, price, mileage, model, condition,
// country of origin and, for the vin mode only, the VIN.
func (s OfferSummary) Text(mode Mode) string {
	fields := []string{
		s.Title,
		s.Description,
		optionalInt(s.Price),
		optionalInt(s.Mileage),
		s.Model,
		s.Condition,
		s.CountryOfOrigin,
	}
	if mode == ModeVIN {
		fields = append(fields, deref(s.VIN))
	}
	return strings.Join(fields, " ")
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return cast.ToString(*v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
