package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus counters for the hot paths the admin console
// cares about: request volume, authorization outcomes and audit writes.
type Metrics struct {
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	permissionChecks  *prometheus.CounterVec
	auditEvents       *prometheus.CounterVec
	auditWriteFailure prometheus.Counter
}

// NewMetrics registers collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		permissionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "permission_checks_total",
			Help: "Permission engine decisions by role and outcome.",
		}, []string{"role", "outcome"}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Audit events written by event type.",
		}, []string{"event_type"}),
		auditWriteFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Audit records that could not be persisted after an accepted mutation.",
		}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.permissionChecks, m.auditEvents, m.auditWriteFailure)
	return m
}

// RecordRequest counts a completed HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordPermissionCheck counts an authorization decision.
func (m *Metrics) RecordPermissionCheck(role string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.permissionChecks.WithLabelValues(role, outcome).Inc()
}

// RecordAuditEvent counts a persisted audit record.
func (m *Metrics) RecordAuditEvent(eventType string) {
	if m == nil {
		return
	}
	m.auditEvents.WithLabelValues(eventType).Inc()
}

// RecordAuditWriteFailure counts an audit write that failed after its mutation.
func (m *Metrics) RecordAuditWriteFailure() {
	if m == nil {
		return
	}
	m.auditWriteFailure.Inc()
}
