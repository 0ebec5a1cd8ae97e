package metrics

import (
	"errors"
	"testing"
	"time"

	"offer-classifier/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LabelWritten(models.ModeVIN, true)
		m.LabelRun(models.ModeVIN, nil)
		m.Embedded(time.Second)
		m.Trained("knn", models.ModeVIN, time.Second, models.EvaluationMetrics{})
		m.Predicted("knn", models.ModeVIN)
	})
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.LabelWritten(models.ModeVIN, true)
	m.LabelWritten(models.ModeVIN, true)
	m.LabelWritten(models.ModeVIN, false)
	m.LabelRun(models.ModeDescription, errors.New("boom"))
	m.Predicted("logistic_regression", models.ModeDescription)
	m.Trained("knn", models.ModeVIN, 2*time.Second, models.EvaluationMetrics{Accuracy: 0.75, F1: 0.5})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.labelsWritten.WithLabelValues("vin", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.labelsWritten.WithLabelValues("vin", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.labelRuns.WithLabelValues("description", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("logistic_regression", "description")))
	assert.Equal(t, 0.75, testutil.ToFloat64(m.evaluation.WithLabelValues("knn", "vin", "accuracy")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.evaluation.WithLabelValues("knn", "vin", "f1")))
}
