package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for Aadhaar OTP challenges.
type Metrics struct {
	// Challenges issued
	Sent prometheus.Counter

	// Verification attempts by result (verified, mismatch, expired)
	Verifications *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Sent: factory.NewCounter(prometheus.CounterOpts{
			Name: "mapproperties_otp_sent_total",
			Help: "Total Aadhaar OTP challenges issued",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mapproperties_otp_verifications_total",
			Help: "Total Aadhaar OTP verification attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementSent() {
	if m != nil {
		m.Sent.Inc()
	}
}

func (m *Metrics) IncrementVerification(result string) {
	if m != nil {
		m.Verifications.WithLabelValues(result).Inc()
	}
}
