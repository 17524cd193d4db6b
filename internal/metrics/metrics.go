// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldhouse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldhouse_db_query_duration_seconds",
			Help:    "Database call duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"},
	)

	SlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_db_slow_queries_total",
			Help: "Database calls slower than the configured threshold",
		},
		[]string{"op"},
	)

	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_enrollments_total",
			Help: "Program assignment attempts by outcome",
		},
		[]string{"outcome"},
	)

	SessionRegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_session_registrations_total",
			Help: "Session registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	AttendanceMarksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_attendance_marks_total",
			Help: "Attendance marks by status",
		},
		[]string{"status"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_booking_transitions_total",
			Help: "Booking transition attempts by edge and outcome",
		},
		[]string{"from", "to", "outcome"},
	)

	IntakePathsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_intake_paths_total",
			Help: "Intake downstream attempts by path and outcome",
		},
		[]string{"path", "outcome"},
	)

	EmailSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_email_sends_total",
			Help: "Outbound email sends by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CheckoutLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldhouse_checkout_lookups_total",
			Help: "Checkout link lookups by outcome",
		},
		[]string{"outcome"},
	)
)

// Outcome label values shared by the counters above.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)
