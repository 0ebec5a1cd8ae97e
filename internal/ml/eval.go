package ml

import (
	"errors"

	"offer-classifier/internal/models"
)

// ErrDegenerateSplit marks a test partition holding a single class. It is
// reported through EvaluationMetrics.DegenerateSplit rather than returned.
var ErrDegenerateSplit = errors.New("test partition holds a single class")

// Evaluate scores predictions against truth with suspicious as the positive
// class. Undefined ratios are 0.
func Evaluate(truth, pred []bool) models.EvaluationMetrics {
	var tp, fp, fn, correct int
	for i := range truth {
		switch {
		case truth[i] && pred[i]:
			tp++
		case !truth[i] && pred[i]:
			fp++
		case truth[i] && !pred[i]:
			fn++
		}
		if truth[i] == pred[i] {
			correct++
		}
	}

	m := models.EvaluationMetrics{
		Accuracy:  ratio(correct, len(truth)),
		Precision: ratio(tp, tp+fp),
		Recall:    ratio(tp, tp+fn),
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	if len(truth) > 0 {
		_, m.DegenerateSplit = singleClass(truth)
	}
	return m
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
