// Package metrics defines the prometheus instrumentation for scan processing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics
var (
	// ScansCreatedTotal tracks scan rows created by type
	ScansCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resc_scans_created_total",
			Help: "Total number of scans created by scan type",
		},
		[]string{"scan_type"},
	)

	// ScansSkippedTotal tracks worker runs short-circuited because the
	// branch had no new commits
	ScansSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resc_scans_skipped_total",
			Help: "Total number of scan runs skipped because the branch had not advanced",
		},
	)

	// ScanDuration tracks scanner worker run duration
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resc_scan_duration_seconds",
			Help:    "Scanner run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"scan_type"},
	)
)

// Ingestion metrics
var (
	// FindingsIngestedTotal tracks findings inserted as new rows
	FindingsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resc_findings_ingested_total",
			Help: "Total number of new finding rows created at ingestion",
		},
	)

	// FindingsReusedTotal tracks candidates deduplicated against existing rows
	FindingsReusedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resc_findings_reused_total",
			Help: "Total number of candidate findings matched to existing rows",
		},
	)

	// AuditsCreatedTotal tracks triage decisions recorded by status
	AuditsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resc_audits_created_total",
			Help: "Total number of audit records created by status",
		},
		[]string{"status"},
	)
)

// Chain metrics
var (
	// IncompleteChainsTotal tracks chain walks that exhausted a branch's
	// history without reaching a base scan
	IncompleteChainsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resc_incomplete_scan_chains_total",
			Help: "Total number of scan chain resolutions that found no base scan",
		},
	)
)
