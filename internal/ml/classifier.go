package ml

import "errors"

// Classifier is a binary classifier over sparse vectors; true is the
// positive (suspicious) class. Fit may assume both classes are present.
type Classifier interface {
	Fit(X []Vector, y []bool, dim int) error
	Predict(x Vector) bool
}

// ProbabilityEstimator is implemented by classifiers that can report
// P(positive).
type ProbabilityEstimator interface {
	PredictProba(x Vector) float64
}

// DecisionFunction is implemented by classifiers that only expose a signed
// margin; positive means the positive class.
type DecisionFunction interface {
	Decision(x Vector) float64
}

func checkTrainingSet(X []Vector, y []bool) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	if len(X) != len(y) {
		return errors.New("feature and label counts differ")
	}
	return nil
}

func target(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
