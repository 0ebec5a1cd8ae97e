package ml

import "math"

// LogisticRegression is l2-regularised logistic regression fitted by
// full-batch gradient descent. The intercept is not regularised.
type LogisticRegression struct {
	C         float64   `json:"c"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewLogisticRegression creates a model with C=1.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1, MaxIter: 500, Tol: 1e-4}
}

func (l *LogisticRegression) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n := float64(len(X))
	lambda := 1 / (l.C * n)
	// rows are l2-normalised; with the bias column ||x||^2 <= 2, so the loss
	// is (0.5+lambda)-smooth
	lr := 1 / (0.5 + lambda)

	w := make([]float64, dim)
	var b float64
	grad := make([]float64, dim)
	for iter := 0; iter < l.MaxIter; iter++ {
		for j := range grad {
			grad[j] = lambda * w[j]
		}
		var gb float64
		for i, x := range X {
			r := (sigmoid(x.DotDense(w)+b) - target(y[i])) / n
			x.addScaled(grad, r)
			gb += r
		}

		norm := gb * gb
		for j := range w {
			w[j] -= lr * grad[j]
			norm += grad[j] * grad[j]
		}
		b -= lr * gb
		if math.Sqrt(norm) < l.Tol {
			break
		}
	}

	l.Weights = w
	l.Intercept = b
	return nil
}

func (l *LogisticRegression) Decision(x Vector) float64 {
	return x.DotDense(l.Weights) + l.Intercept
}

func (l *LogisticRegression) PredictProba(x Vector) float64 {
	return sigmoid(l.Decision(x))
}

func (l *LogisticRegression) Predict(x Vector) bool {
	return l.Decision(x) > 0
}
