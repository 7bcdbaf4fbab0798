package generation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lazycare",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Total number of generation calls by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lazycare",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of generation calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"backend"},
	)

	generationInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lazycare",
			Subsystem: "generation",
			Name:      "inflight",
			Help:      "Generation calls currently running",
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, generationDuration, generationInflight)
}

func observe(backend string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsDependencyUnavailable(err):
		outcome = "unavailable"
	default:
		outcome = "error"
	}
	generationsTotal.WithLabelValues(backend, outcome).Inc()
	generationDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
