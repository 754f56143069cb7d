package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthFailuresTotal counts rejected bearer tokens.
	AuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Bearer tokens rejected by the verifier",
		},
	)

	// LedgerEntriesTotal counts ledger rows written by this process, by table and action.
	LedgerEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_ledger_entries_total",
			Help: "Audit ledger rows written",
		},
		[]string{"table", "action"},
	)

	// LedgerCaptureFailuresTotal counts absorbed capture failures by table and class.
	LedgerCaptureFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_ledger_capture_failures_total",
			Help: "Audit ledger captures that failed and were absorbed",
		},
		[]string{"table", "class"},
	)

	// LedgerSkippedTotal counts mutations with an unrecognized operation.
	LedgerSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_ledger_skipped_total",
			Help: "Mutations ignored because the operation was not UPDATE or DELETE",
		},
		[]string{"table"},
	)

	// LedgerRows is the total ledger size per table and action, refreshed by the scheduler.
	LedgerRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audit_ledger_rows",
			Help: "Rows in audit.logged_actions",
		},
		[]string{"table", "action"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthFailuresTotal,
			LedgerEntriesTotal, LedgerCaptureFailuresTotal, LedgerSkippedTotal, LedgerRows)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/layer/123 -> /v1/layer/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncAuthFailures() {
	AuthFailuresTotal.Inc()
}

func IncLedgerEntries(table, action string) {
	LedgerEntriesTotal.WithLabelValues(table, action).Inc()
}

func IncLedgerCaptureFailures(table, class string) {
	LedgerCaptureFailuresTotal.WithLabelValues(table, class).Inc()
}

func IncLedgerSkipped(table string) {
	LedgerSkippedTotal.WithLabelValues(table).Inc()
}

// SetLedgerRows replaces the ledger gauge for one table/action pair.
func SetLedgerRows(table, action string, n int) {
	LedgerRows.WithLabelValues(table, action).Set(float64(n))
}
