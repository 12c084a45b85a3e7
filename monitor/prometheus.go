// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusSink feeds the same Start/CompleteOk/CompleteErr event stream
// the Statistics aggregator consumes into named Prometheus metrics (§4.9:
// "when compiled with the Prometheus feature, the same events feed named
// metrics").
type PrometheusSink struct {
	evaluateDuration *prometheus.HistogramVec
	evaluations      *prometheus.CounterVec
	errors           *prometheus.CounterVec
}

// NewPrometheusSink registers the sink's metrics with reg. Pass
// prometheus.DefaultRegisterer to use the global registry, or a
// prometheus.NewRegistry() for isolated tests.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		evaluateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seedwing_evaluate_duration_seconds",
			Help:    "Histogram of pattern evaluation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"pattern"}),
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seedwing_evaluations_total",
			Help: "Total number of pattern evaluations by outcome",
		}, []string{"pattern", "outcome"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seedwing_evaluation_errors_total",
			Help: "Total number of pattern evaluations that aborted with a runtime error",
		}, []string{"pattern"}),
	}
}

// Observe feeds a single monitor Event into the sink's metrics. Start
// events carry no outcome and are ignored.
func (s *PrometheusSink) Observe(ev Event) {
	switch ev.Kind {
	case EventCompleteOk:
		s.evaluateDuration.WithLabelValues(ev.Pattern).Observe(ev.Elapsed.Seconds())
		outcome := "unsatisfied"
		if ev.Satisfied {
			outcome = "satisfied"
		}
		s.evaluations.WithLabelValues(ev.Pattern, outcome).Inc()
	case EventCompleteErr:
		s.errors.WithLabelValues(ev.Pattern).Inc()
	}
}

// Run drains ch into Observe until ch closes, mirroring Statistics.Run so
// both sinks can subscribe to the same Monitor independently.
func (s *PrometheusSink) Run(ch <-chan Event) {
	for ev := range ch {
		s.Observe(ev)
	}
}
