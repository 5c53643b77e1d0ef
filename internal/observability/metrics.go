package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for analysis and recommendations.
type Metrics struct {
	// Provider metrics. labels: provider={chat,classifier}, outcome={success,error}
	ProviderAttempts *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// labels: outcome={success,error}
	Analyses           *prometheus.CounterVec
	NormalizerDegraded prometheus.Counter

	// labels: source={model,default}
	Recommendations *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderAttempts,
		m.ProviderDuration,
		m.Analyses,
		m.NormalizerDegraded,
		m.Recommendations,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatpulse",
			Name:      "provider_attempts_total",
			Help:      "Analysis provider attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "threatpulse",
			Name:      "provider_attempt_duration_seconds",
			Help:      "Duration of a single analysis provider attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatpulse",
			Name:      "analyses_total",
			Help:      "Completed analyze calls by outcome.",
		}, []string{"outcome"}),
		NormalizerDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threatpulse",
			Name:      "normalizer_degraded_total",
			Help:      "Model replies that could not be parsed and produced the degraded record.",
		}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatpulse",
			Name:      "recommendations_total",
			Help:      "Recommendation lists served by source.",
		}, []string{"source"}),
	}
}
