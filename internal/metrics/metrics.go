// Package metrics holds the Prometheus collectors fleetd exports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync outcomes.
const (
	OutcomeInserted      = "inserted"
	OutcomeClientWon     = "client_won"
	OutcomeServerWon     = "server_won"
	OutcomeTenantSkipped = "tenant_skipped"
	OutcomeFailed        = "failed"
	OutcomeRemoved       = "removed"
)

var (
	// Sync metrics
	SyncRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_sync_records_total",
			Help: "Fleet records processed by sync, by outcome",
		},
		[]string{"outcome"},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetd_sync_duration_seconds",
			Help:    "Sync batch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// View builder metrics
	LookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetd_lookup_duration_seconds",
			Help:    "View lookup duration in seconds by entity",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity"},
	)

	LookupFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_lookup_failures_total",
			Help: "Failed view lookups by entity",
		},
		[]string{"entity"},
	)

	// RPC metrics
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_rpc_requests_total",
			Help: "JSON-RPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetd_rpc_request_duration_seconds",
			Help:    "JSON-RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Auth metrics
	TenantCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetd_tenant_cache_total",
			Help: "Tenant cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(SyncRecordsTotal)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(LookupDuration)
	prometheus.MustRegister(LookupFailuresTotal)
	prometheus.MustRegister(RPCRequestsTotal)
	prometheus.MustRegister(RPCRequestDuration)
	prometheus.MustRegister(TenantCacheTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation for a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed seconds on h.
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed seconds on the labelled child of h.
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
