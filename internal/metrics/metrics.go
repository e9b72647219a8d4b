// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts what happens during one run: documents by outcome
// and failure stage, judge calls and their latency. Each run owns its own
// registry so that repeated runs (watch mode, tests) start from zero. The
// registry can be written in the node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/docintel/pkg/types"
)

const namespace = "docintel"

// Run holds the collectors of one run.
type Run struct {
	registry *prometheus.Registry

	documents   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	judgeCalls  *prometheus.CounterVec
	judgeTime   prometheus.Histogram
	runDuration prometheus.Gauge
	bytesRead   prometheus.Counter
}

// NewRun creates and registers the collectors for a run of the given mode
// ("rename" or "research").
func NewRun(mode string) *Run {
	labels := prometheus.Labels{"mode": mode}
	r := &Run{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "documents_total",
			Help:        "Documents that reached a terminal state, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "failures_total",
			Help:        "Quarantined documents, by the stage that failed.",
			ConstLabels: labels,
		}, []string{"stage"}),
		judgeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "judge_calls_total",
			Help:        "Language model calls made by the relevance judge, by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		judgeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "judge_call_seconds",
			Help:        "Latency of language model calls made by the relevance judge.",
			ConstLabels: labels,
			Buckets:     []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall-clock duration of the run.",
			ConstLabels: labels,
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "document_bytes_total",
			Help:        "Raw bytes of the documents processed.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.documents, r.failures, r.judgeCalls, r.judgeTime, r.runDuration, r.bytesRead)
	return r
}

// Registry exposes the run's registry.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

// Document counts a document that reached outcome.
func (r *Run) Document(outcome types.Outcome, size int64) {
	r.documents.WithLabelValues(string(outcome)).Inc()
	if size > 0 {
		r.bytesRead.Add(float64(size))
	}
}

// Failure counts a quarantined document.
func (r *Run) Failure(stage types.Stage) {
	r.failures.WithLabelValues(string(stage)).Inc()
}

// ObserveJudgeCall records one judge backend call. It satisfies
// judge.Recorder.
func (r *Run) ObserveJudgeCall(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.judgeCalls.WithLabelValues(result).Inc()
	r.judgeTime.Observe(d.Seconds())
}

// Finish records the run's duration.
func (r *Run) Finish(d time.Duration) {
	r.runDuration.Set(d.Seconds())
}

// WriteTextfile writes the registry to path in the text exposition format
// read by the node exporter's textfile collector.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
