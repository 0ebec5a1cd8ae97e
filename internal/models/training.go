package models

import "time"

// TrainingRow is one labeled feature row. It only lives for a single
// training run.
type TrainingRow struct {
	OfferID      int64  `json:"offer_id"`
	Text         string `json:"text"`
	IsSuspicious bool   `json:"is_suspicious"`
}

// EvaluationMetrics are binary classification scores on the test partition,
// positive class = suspicious.
type EvaluationMetrics struct {
	Accuracy            float64 `json:"accuracy"`
	Precision           float64 `json:"precision"`
	Recall              float64 `json:"recall"`
	F1                  float64 `json:"f1_score"`
	BuildTimeSeconds    int64   `json:"build_time_seconds"`
	DegenerateSplit     bool    `json:"degenerate_split,omitempty"`
	SupportsProbability bool    `json:"supports_probability"`
}

// EvaluationReport collects the results of one training run for one mode.
type EvaluationReport struct {
	RunID     string                       `json:"run_id"`
	Mode      Mode                         `json:"mode"`
	Seed      int64                        `json:"seed"`
	TrainIDs  []int64                      `json:"train_offer_ids"`
	TestIDs   []int64                      `json:"test_offer_ids"`
	Results   map[string]EvaluationMetrics `json:"results"`
	StartedAt time.Time                    `json:"started_at"`
}

// ScoreKind says how to read Prediction.Score.
type ScoreKind string

const (
	// ScoreProbability is P(suspicious) in [0,1].
	ScoreProbability ScoreKind = "probability"
	// ScoreDecision is a signed margin; positive means suspicious.
	ScoreDecision ScoreKind = "decision_function"
)

// Prediction is the suspicion score of one offer under one pipeline.
type Prediction struct {
	Model      string    `json:"model"`
	Mode       Mode      `json:"mode"`
	Score      float64   `json:"score"`
	Kind       ScoreKind `json:"kind"`
	Suspicious bool      `json:"suspicious"`
}
