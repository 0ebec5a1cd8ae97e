package metrics

import (
	"strconv"
	"time"

	"offer-classifier/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes pipeline counters to Prometheus. A nil *Metrics is valid
// and records nothing, so components can run without a registry.
type Metrics struct {
	labelsWritten    *prometheus.CounterVec
	labelRuns        *prometheus.CounterVec
	embedDuration    prometheus.Histogram
	trainingDuration *prometheus.HistogramVec
	evaluation       *prometheus.GaugeVec
	predictions      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		labelsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offer_classifier",
			Name:      "labels_written_total",
			Help:      "Labels inserted, by mode and outcome.",
		}, []string{"mode", "suspicious"}),
		labelRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offer_classifier",
			Name:      "label_runs_total",
			Help:      "Labeling passes, by mode and status.",
		}, []string{"mode", "status"}),
		embedDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "offer_classifier",
			Name:      "embedding_duration_seconds",
			Help:      "Time spent encoding one propagation corpus.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		trainingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "offer_classifier",
			Name:      "training_duration_seconds",
			Help:      "Wall-clock fit time per classifier.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"model", "mode"}),
		evaluation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "offer_classifier",
			Name:      "evaluation_score",
			Help:      "Latest test-partition score per classifier.",
		}, []string{"model", "mode", "metric"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offer_classifier",
			Name:      "predictions_total",
			Help:      "Predictions served, by pipeline.",
		}, []string{"model", "mode"}),
	}

	reg.MustRegister(
		m.labelsWritten,
		m.labelRuns,
		m.embedDuration,
		m.trainingDuration,
		m.evaluation,
		m.predictions,
	)
	return m
}

func (m *Metrics) LabelWritten(mode models.Mode, suspicious bool) {
	if m == nil {
		return
	}
	m.labelsWritten.WithLabelValues(string(mode), strconv.FormatBool(suspicious)).Inc()
}

func (m *Metrics) LabelRun(mode models.Mode, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.labelRuns.WithLabelValues(string(mode), status).Inc()
}

func (m *Metrics) Embedded(d time.Duration) {
	if m == nil {
		return
	}
	m.embedDuration.Observe(d.Seconds())
}

func (m *Metrics) Trained(model string, mode models.Mode, d time.Duration, res models.EvaluationMetrics) {
	if m == nil {
		return
	}
	m.trainingDuration.WithLabelValues(model, string(mode)).Observe(d.Seconds())
	m.evaluation.WithLabelValues(model, string(mode), "accuracy").Set(res.Accuracy)
	m.evaluation.WithLabelValues(model, string(mode), "precision").Set(res.Precision)
	m.evaluation.WithLabelValues(model, string(mode), "recall").Set(res.Recall)
	m.evaluation.WithLabelValues(model, string(mode), "f1").Set(res.F1)
}

func (m *Metrics) Predicted(model string, mode models.Mode) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(model, string(mode)).Inc()
}
