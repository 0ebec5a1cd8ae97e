package ml

import "math"

// LinearSVC minimises the l2-regularised squared hinge loss. It exposes only
// a decision function.
type LinearSVC struct {
	C         float64   `json:"c"`
	MaxIter   int       `json:"max_iter"`
	Tol       float64   `json:"tol"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// NewLinearSVC creates a model with C=1.
func NewLinearSVC() *LinearSVC {
	return &LinearSVC{C: 1, MaxIter: 1000, Tol: 1e-4}
}

func (s *LinearSVC) Fit(X []Vector, y []bool, dim int) error {
	if err := checkTrainingSet(X, y); err != nil {
		return err
	}

	n := float64(len(X))
	lambda := 1 / (s.C * n)
	// squared hinge on unit-norm rows with a bias term is (4+lambda)-smooth
	lr := 1 / (4 + lambda)

	w := make([]float64, dim)
	var b float64
	grad := make([]float64, dim)
	for iter := 0; iter < s.MaxIter; iter++ {
		for j := range grad {
			grad[j] = lambda * w[j]
		}
		var gb float64
		for i, x := range X {
			sign := -1.0
			if y[i] {
				sign = 1
			}
			margin := 1 - sign*(x.DotDense(w)+b)
			if margin <= 0 {
				continue
			}
			r := -2 * sign * margin / n
			x.addScaled(grad, r)
			gb += r
		}

		norm := gb * gb
		for j := range w {
			w[j] -= lr * grad[j]
			norm += grad[j] * grad[j]
		}
		b -= lr * gb
		if math.Sqrt(norm) < s.Tol {
			break
		}
	}

	s.Weights = w
	s.Intercept = b
	return nil
}

func (s *LinearSVC) Decision(x Vector) float64 {
	return x.DotDense(s.Weights) + s.Intercept
}

func (s *LinearSVC) Predict(x Vector) bool {
	return s.Decision(x) > 0
}
