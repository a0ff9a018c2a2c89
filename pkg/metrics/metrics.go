// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sift_server/pkg/logger"
)

// Metrics holds pipeline counters. All methods are nil-safe and
// fire-and-forget; registration errors are logged but never propagated.
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	messagesFetched    *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	recordsPersisted   *prometheus.CounterVec
	limiterWait        prometheus.Histogram
	runDuration        *prometheus.HistogramVec
}

// New creates pipeline metrics registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsift_runs_total",
			Help: "Total number of pipeline runs, by variant and outcome.",
		}, []string{"variant", "outcome"}),
		messagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsift_messages_fetched_total",
			Help: "Total number of messages fetched from the mail source.",
		}, []string{"variant"}),
		extractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsift_extraction_failures_total",
			Help: "Total number of per-message extraction failures.",
		}, []string{"variant"}),
		recordsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsift_records_persisted_total",
			Help: "Total number of structured records written to storage.",
		}, []string{"variant"}),
		limiterWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailsift_limiter_wait_seconds",
			Help:    "Time spent blocked on the model call rate limiter.",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 30, 60},
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailsift_run_duration_seconds",
			Help:    "Duration of a full pipeline run.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"variant"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"mailsift_runs_total":                 m.runsTotal,
		"mailsift_messages_fetched_total":     m.messagesFetched,
		"mailsift_extraction_failures_total":  m.extractionFailures,
		"mailsift_records_persisted_total":    m.recordsPersisted,
		"mailsift_limiter_wait_seconds":       m.limiterWait,
		"mailsift_run_duration_seconds":       m.runDuration,
	} {
		if err := reg.Register(c); err != nil {
			logger.Warn("metrics: failed to register %s: %v", name, err)
		}
	}

	return m
}

func (m *Metrics) RunCompleted(variant, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(variant, outcome).Inc()
	m.runDuration.WithLabelValues(variant).Observe(d.Seconds())
}

func (m *Metrics) MessagesFetched(variant string, n int) {
	if m == nil {
		return
	}
	m.messagesFetched.WithLabelValues(variant).Add(float64(n))
}

func (m *Metrics) ExtractionFailed(variant string) {
	if m == nil {
		return
	}
	m.extractionFailures.WithLabelValues(variant).Inc()
}

func (m *Metrics) RecordsPersisted(variant string, n int) {
	if m == nil {
		return
	}
	m.recordsPersisted.WithLabelValues(variant).Add(float64(n))
}

func (m *Metrics) LimiterWaited(d time.Duration) {
	if m == nil {
		return
	}
	m.limiterWait.Observe(d.Seconds())
}
