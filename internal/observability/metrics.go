package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	progressRechecksTotal *prometheus.CounterVec
	transitionsTotal      *prometheus.CounterVec
	certificatesIssued    prometheus.Counter
	dashboardRequests     *prometheus.CounterVec
	reconcileRunsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the learning core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		progressRechecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "progress_rechecks_total",
			Help: "Completion state evaluations by result (ok, degraded, no_enrollment).",
		}, []string{"result"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_transitions_total",
			Help: "Enrollment status transitions applied by the completion state machine.",
		}, []string{"from", "to"})

		certificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates created on course completion.",
		})

		dashboardRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_requests_total",
			Help: "Student dashboard requests by cache outcome.",
		}, []string{"cache"})

		reconcileRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "completion_reconcile_enrollments_total",
			Help: "Enrollments rechecked by the background reconciler by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			progressRechecksTotal,
			transitionsTotal,
			certificatesIssued,
			dashboardRequests,
			reconcileRunsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ProgressRechecks exposes the completion evaluation counter.
func ProgressRechecks() *prometheus.CounterVec {
	RegisterMetrics()
	return progressRechecksTotal
}

// EnrollmentTransitions exposes the status transition counter.
func EnrollmentTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// CertificatesIssued exposes the certificate issuance counter.
func CertificatesIssued() prometheus.Counter {
	RegisterMetrics()
	return certificatesIssued
}

// DashboardRequests exposes the dashboard cache counter.
func DashboardRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardRequests
}

// ReconcileRuns exposes the reconciler counter.
func ReconcileRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return reconcileRunsTotal
}
