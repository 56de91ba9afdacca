package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for insight derivation.
type Metrics struct {
	// Derivations by result (ok, invalid)
	Generated *prometheus.CounterVec

	// Investment score distribution across served insights
	InvestmentScore prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mapproperties_insight_generated_total",
			Help: "Total insight derivations by result",
		}, []string{"result"}),

		InvestmentScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mapproperties_insight_investment_score",
			Help:    "Investment score of generated insights",
			Buckets: []float64{7, 7.5, 8, 8.5, 9, 9.5, 10},
		}),
	}
}

func (m *Metrics) IncrementGenerated(result string) {
	if m != nil {
		m.Generated.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveInvestmentScore(score float64) {
	if m != nil {
		m.InvestmentScore.Observe(score)
	}
}
