// Package metrics holds the Prometheus collectors for pattern analysis.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisRuns counts analyze invocations.
	// Labels: result (success, fetch_error, timeout, in_progress, invalid)
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saydo",
			Subsystem: "patterns",
			Name:      "analysis_runs_total",
			Help:      "Total number of pattern analysis runs by result",
		},
		[]string{"result"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "saydo",
			Subsystem: "patterns",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of pattern analysis runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// PatternSaves counts per-type pattern upserts.
	// Labels: pattern_type, result (success, error)
	PatternSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saydo",
			Subsystem: "patterns",
			Name:      "saves_total",
			Help:      "Total number of pattern upserts by type and result",
		},
		[]string{"pattern_type", "result"},
	)

	// RescoreWrites counts confidence write-backs.
	// Labels: result (success, error, unchanged)
	RescoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "saydo",
			Subsystem: "patterns",
			Name:      "rescore_writes_total",
			Help:      "Total number of confidence rescore outcomes",
		},
		[]string{"result"},
	)
)
