// Package observability exposes Prometheus metrics for the scan pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scansStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seo_tool",
		Subsystem: "scans",
		Name:      "started_total",
		Help:      "Number of grid scans that entered the running state.",
	})
	scansCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seo_tool",
		Subsystem: "scans",
		Name:      "completed_total",
		Help:      "Number of grid scans that completed.",
	})
	scansFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seo_tool",
		Subsystem: "scans",
		Name:      "failed_total",
		Help:      "Number of grid scans that failed.",
	})
	lookupCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seo_tool",
		Subsystem: "lookups",
		Name:      "calls_total",
		Help:      "Number of ranking lookup calls issued, retries included.",
	})
	lookupRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "seo_tool",
		Subsystem: "lookups",
		Name:      "retries_total",
		Help:      "Number of ranking lookup calls that hit a transient failure.",
	})
	lastScanCompletedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "seo_tool",
		Subsystem: "scans",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed scan.",
	})
	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "seo_tool",
		Subsystem: "scans",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of completed scans.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(
		scansStarted,
		scansCompleted,
		scansFailed,
		lookupCalls,
		lookupRetries,
		lastScanCompletedGauge,
		scanDuration,
	)
}

// RecordScanStarted increments the running-scan counter.
func RecordScanStarted() {
	scansStarted.Inc()
}

// RecordScanCompleted records a completed scan and its duration.
func RecordScanCompleted(startedAt, completedAt time.Time) {
	scansCompleted.Inc()
	lastScanCompletedGauge.Set(float64(completedAt.Unix()))
	if !startedAt.IsZero() {
		scanDuration.Observe(completedAt.Sub(startedAt).Seconds())
	}
}

// RecordScanFailed increments the failed-scan counter.
func RecordScanFailed() {
	scansFailed.Inc()
}

// RecordLookupCall increments the lookup-call counter.
func RecordLookupCall() {
	lookupCalls.Inc()
}

// RecordLookupRetry increments the transient-failure counter.
func RecordLookupRetry() {
	lookupRetries.Inc()
}
