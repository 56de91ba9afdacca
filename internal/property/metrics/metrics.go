package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for property listings.
type Metrics struct {
	Created       prometheus.Counter
	StatusChanges *prometheus.CounterVec
	NearbyResults prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "mapproperties_properties_created_total",
			Help: "Total number of listings created",
		}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mapproperties_property_status_changes_total",
			Help: "Verification status transitions applied to listings",
		}, []string{"status"}),
		NearbyResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapproperties_property_nearby_results",
			Help:    "Number of listings returned by a nearby search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveNearbyResults(n int) {
	if m != nil {
		m.NearbyResults.Observe(float64(n))
	}
}
