// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Access gate metrics
	pinAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_pin_attempts_total",
			Help: "Total PIN verification attempts",
		},
		[]string{"result"},
	)

	// Recycle bin sweep metrics
	sweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_sweep_runs_total",
			Help: "Total recycle bin sweeps by outcome",
		},
		[]string{"outcome"},
	)

	sweepDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_sweep_deleted_total",
			Help: "Total recycle bin entries deleted by sweeps",
		},
	)

	sweepDeleteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_sweep_delete_failures_total",
			Help: "Total recycle bin deletions that failed",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_sweep_duration_seconds",
			Help:    "Duration of recycle bin sweeps",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300, 600},
		},
	)

	sweepLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_sweep_last_success_timestamp_seconds",
			Help: "Unix time of the last sweep that completed without errors",
		},
	)

	// Remote session metrics
	remoteSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_remote_sessions_total",
			Help: "Total SFTP sessions opened, by result",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordPINAttempt(success bool) {
	if success {
		pinAttemptsTotal.WithLabelValues("success").Inc()
		return
	}
	pinAttemptsTotal.WithLabelValues("failure").Inc()
}

// RecordSweep records a finished sweep. outcome is "ok", "partial" or "failed".
func RecordSweep(outcome string, deleted int, failed int, duration time.Duration, finishedAt time.Time) {
	sweepRunsTotal.WithLabelValues(outcome).Inc()
	sweepDeletedTotal.Add(float64(deleted))
	sweepDeleteFailuresTotal.Add(float64(failed))
	sweepDuration.Observe(duration.Seconds())
	if outcome == "ok" {
		sweepLastSuccess.Set(float64(finishedAt.Unix()))
	}
}

func RecordRemoteSession(err error) {
	if err != nil {
		remoteSessionsTotal.WithLabelValues("error").Inc()
		return
	}
	remoteSessionsTotal.WithLabelValues("ok").Inc()
}
