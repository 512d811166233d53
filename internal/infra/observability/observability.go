// Package observability holds the Prometheus metrics for the signal service.
//
// Metrics are package-level promauto globals, registered on the default
// registry and served by promhttp at /metrics:
//   - Signal computations by tier, latency, and last score distribution
//   - Store errors by operation
//   - Rescore queue depth and job outcomes
//   - HTTP requests by route and status class
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "productlobby"

// ─── Signal Metrics ─────────────────────────────────────────────────────────

// SignalComputations counts completed score computations by resulting tier.
var SignalComputations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "signal",
	Name:      "computations_total",
	Help:      "Total signal score computations by resulting tier.",
}, []string{"tier"})

// SignalComputeDuration tracks end-to-end evaluation latency (reads + scoring).
var SignalComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "signal",
	Name:      "compute_seconds",
	Help:      "Signal score evaluation latency in seconds, including aggregate reads.",
	Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
})

// SignalScores tracks the distribution of computed scores.
var SignalScores = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "signal",
	Name:      "score",
	Help:      "Distribution of computed signal scores (0-100).",
	Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
})

// SignalNotFound counts evaluations for unknown campaigns.
var SignalNotFound = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "signal",
	Name:      "not_found_total",
	Help:      "Total signal score requests for campaigns that do not exist.",
})

// ─── Store Metrics ──────────────────────────────────────────────────────────

// StoreErrors counts data-layer failures by operation.
var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "store",
	Name:      "errors_total",
	Help:      "Total data-layer errors by operation.",
}, []string{"operation"})

// ─── Rescore Metrics ────────────────────────────────────────────────────────

// RescoreQueueDepth tracks campaigns waiting to be rescored.
var RescoreQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "rescore",
	Name:      "queue_depth",
	Help:      "Current number of campaigns waiting in the rescore queue.",
})

// RescoreJobs counts rescore attempts by outcome (success, not_found, error).
var RescoreJobs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rescore",
	Name:      "jobs_total",
	Help:      "Total rescore jobs by outcome.",
}, []string{"outcome"})

// RescoreSweeps counts scheduler sweeps by outcome (ran, skipped_locked, error).
var RescoreSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rescore",
	Name:      "sweeps_total",
	Help:      "Total periodic rescore sweeps by outcome.",
}, []string{"outcome"})

// ─── HTTP Metrics ───────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route pattern and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status class.",
}, []string{"route", "code"})

// HTTPDuration tracks API latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_seconds",
	Help:      "HTTP request latency in seconds by route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// ObserveHTTP records one finished request.
func ObserveHTTP(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, StatusClass(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// StatusClass collapses an HTTP status into "2xx", "4xx", etc.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
