package search

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "schedeval"

// Outcomes of a trial, used as the "outcome" label of the trials counter.
const (
	OutcomeScored  = "scored"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics counts trials of a search in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	trials   *prometheus.CounterVec
	best     prometheus.Gauge
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "trials_total",
			Help:      "Number of trials run by the parameter search, by outcome.",
		}, []string{"outcome"}),
		best: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_score",
			Help:      "Best score found so far. +Inf when a baseline-only problem was eliminated.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "trial_duration_seconds",
			Help:      "Wall time of a trial, from configuration to score.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	for _, outcome := range []string{OutcomeScored, OutcomeSkipped, OutcomeFailed} {
		m.trials.WithLabelValues(outcome)
	}
	m.registry.MustRegister(m.trials, m.best, m.duration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format, for the node
// exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(r Result) {
	if m == nil {
		return
	}

	m.trials.WithLabelValues(r.Outcome()).Inc()
	m.duration.Observe(r.Duration.Seconds())
}

func (m *Metrics) setBest(score float64) {
	if m == nil || math.IsNaN(score) {
		return
	}
	m.best.Set(score)
}
