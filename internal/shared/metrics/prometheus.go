package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	reportsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_created_total",
			Help: "Total number of daily reports created",
		},
		[]string{"report_type"},
	)

	reportStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_status_changed_total",
			Help: "Total number of report status changes",
		},
		[]string{"from_status", "to_status"},
	)

	eventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_created_total",
			Help: "Total number of events created",
		},
		[]string{"event_type", "severity"},
	)

	referenceNumbersIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_numbers_issued_total",
			Help: "Total number of reference numbers issued",
		},
		[]string{"prefix"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)

	authorizationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authorization_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"module", "action", "decision"},
	)

	attachmentsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_stored_total",
			Help: "Total number of attachments stored",
		},
		[]string{"owner_type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath collapses UUID path segments so metric cardinality stays
// bounded per route, not per resource.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if len(s) == 36 && strings.Count(s, "-") == 4 {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// --- Business metric helpers ---

// RecordReportCreated records a daily report creation
func RecordReportCreated(reportType string) {
	reportsCreated.WithLabelValues(reportType).Inc()
}

// RecordReportStatusChange records a report status transition
func RecordReportStatusChange(fromStatus, toStatus string) {
	reportStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordEventCreated records an event creation
func RecordEventCreated(eventType, severity string) {
	eventsCreated.WithLabelValues(eventType, severity).Inc()
}

// RecordReferenceNumber records an issued reference number
func RecordReferenceNumber(prefix string) {
	referenceNumbersIssued.WithLabelValues(prefix).Inc()
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordAuthorizationDecision records an authorization decision
func RecordAuthorizationDecision(module, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	authorizationDecisions.WithLabelValues(module, action, decision).Inc()
}

// RecordAttachmentStored records a stored attachment
func RecordAttachmentStored(ownerType string) {
	attachmentsStored.WithLabelValues(ownerType).Inc()
}
