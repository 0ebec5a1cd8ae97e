package ml

import (
	"errors"
	"math"
)

// AdaBoost is discrete SAMME boosting over depth-one trees.
type AdaBoost struct {
	NEstimators  int               `json:"n_estimators"`
	LearningRate float64           `json:"learning_rate"`
	Stumps       []*regressionTree `json:"stumps"`
	Weights      []float64         `json:"weights"`
}

// NewAdaBoost creates a 50-stump ensemble with learning rate 1.
func NewAdaBoost() *AdaBoost {
	return &AdaBoost{NEstimators: 50, LearningRate: 1}
}

func (a *AdaBoost) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n := len(X)
	t := targets(y)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	a.Stumps = a.Stumps[:0]
	a.Weights = a.Weights[:0]
	for m := 0; m < a.NEstimators; m++ {
		stump := fitTree(X, t, w, treeParams{maxDepth: 1})

		var errW, total float64
		miss := make([]bool, n)
		for i, x := range X {
			total += w[i]
			if (stump.predict(x) > 0.5) != y[i] {
				miss[i] = true
				errW += w[i]
			}
		}
		errRate := errW / total

		if errRate <= 0 {
			a.Stumps = append(a.Stumps, stump)
			a.Weights = append(a.Weights, 1)
			break
		}
		if errRate >= 0.5 {
			if len(a.Stumps) == 0 {
				return errors.New("adaboost: first stump is no better than chance")
			}
			break
		}

		alpha := a.LearningRate * math.Log((1-errRate)/errRate)
		a.Stumps = append(a.Stumps, stump)
		a.Weights = append(a.Weights, alpha)

		var sum float64
		for i := range w {
			if miss[i] {
				w[i] *= math.Exp(alpha)
			}
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}
	}
	return nil
}

// decision is the weighted vote scaled to [-1, 1].
func (a *AdaBoost) decision(x Vector) float64 {
	var s, total float64
	for m, stump := range a.Stumps {
		vote := -1.0
		if stump.predict(x) > 0.5 {
			vote = 1
		}
		s += a.Weights[m] * vote
		total += a.Weights[m]
	}
	if total == 0 {
		return 0
	}
	return s / total
}

func (a *AdaBoost) PredictProba(x Vector) float64 {
	return sigmoid(a.decision(x))
}

func (a *AdaBoost) Predict(x Vector) bool {
	return a.decision(x) > 0
}
