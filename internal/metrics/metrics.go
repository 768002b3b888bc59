// Package metrics provides Prometheus instrumentation for moderation,
// booking and enrollment outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ModerationVerdicts counts validated submissions by result: "accepted" or "rejected".
	ModerationVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_moderation_verdicts_total",
		Help: "Forum submissions validated by the moderation filter",
	}, []string{"result"})

	// ModerationRejections counts failed checks by reason. One submission
	// may fail several checks.
	ModerationRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_moderation_rejections_total",
		Help: "Moderation check failures by reason",
	}, []string{"reason"})

	// Bookings counts booking attempts by result: "booked", "conflict", "full".
	Bookings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_bookings_total",
		Help: "Session booking attempts by result",
	}, []string{"result"})

	// AutoAssignments counts auto-enrollment attempts by result: "assigned", "none", "full".
	AutoAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_auto_assignments_total",
		Help: "Automatic class assignments by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ModerationVerdicts,
		ModerationRejections,
		Bookings,
		AutoAssignments,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
