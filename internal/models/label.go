package models

import (
	"fmt"
	"time"
)

// Mode identifies which labeling source produced a suspicion label. The two
// label spaces and their artifact slots never mix.
type Mode string

const (
	// ModeDescription labels come from description-similarity propagation.
	ModeDescription Mode = "description"
	// ModeVIN labels come from the VIN heuristic rules.
	ModeVIN Mode = "vin"
)

// Modes lists every label mode.
var Modes = []Mode{ModeDescription, ModeVIN}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDescription, ModeVIN:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown label mode %q (want %q or %q)", s, ModeDescription, ModeVIN)
	}
}

// SuspiciousLabel marks one offer as suspicious or not under one mode.
// Source is the VIN rule that fired (or "similarity"); ModelVersion is the
// embedding model behind description labels.
type SuspiciousLabel struct {
	OfferID      int64     `db:"offer_id" json:"offer_id"`
	Mode         Mode      `db:"mode" json:"mode"`
	IsSuspicious bool      `db:"is_suspicious" json:"is_suspicious"`
	Source       string    `db:"source" json:"source"`
	ModelVersion string    `db:"model_version" json:"model_version,omitempty"`
	LabeledAt    time.Time `db:"labeled_at" json:"labeled_at"`
}

// LabelStats summarises one label space.
type LabelStats struct {
	Mode       Mode `json:"mode"`
	Total      int  `db:"total" json:"total"`
	Suspicious int  `db:"suspicious" json:"suspicious"`
}

// LabelRunSummary is returned by a labeling pass.
type LabelRunSummary struct {
	Mode         Mode   `json:"mode"`
	Offers       int    `json:"offers"`
	Inserted     int    `json:"inserted"`
	Existing     int    `json:"existing"`
	Suspicious   int    `json:"suspicious"`
	Seeds        int    `json:"seeds,omitempty"`
	ModelVersion string `json:"model_version,omitempty"`
}
