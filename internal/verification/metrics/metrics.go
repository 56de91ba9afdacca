package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for document verification.
type Metrics struct {
	// Decision outcomes by status, reason and document type
	Outcomes *prometheus.CounterVec

	// Distribution of image quality scores
	QualityScore prometheus.Histogram

	// Full Verify latency, dominated by image decode
	VerifyLatency prometheus.Histogram
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics with reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mapproperties_verification_outcomes_total",
			Help: "Total verification decisions by status, reason and document type",
		}, []string{"status", "reason", "doc_type"}),

		QualityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapproperties_verification_quality_score",
			Help:    "Image quality score of submitted documents",
			Buckets: []float64{0, 30, 50, 60, 70, 100},
		}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapproperties_verification_duration_seconds",
			Help:    "Duration of document verification including image decode",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records a decision.
func (m *Metrics) IncrementOutcome(status, reason, docType string) {
	if m != nil {
		if reason == "" {
			reason = "none"
		}
		m.Outcomes.WithLabelValues(status, reason, docType).Inc()
	}
}

// ObserveQualityScore records the analyzer score.
func (m *Metrics) ObserveQualityScore(score int) {
	if m != nil {
		m.QualityScore.Observe(float64(score))
	}
}

// ObserveVerifyLatency records the total verification duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
