// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profileform_submissions_total",
			Help: "Submit attempts by outcome (valid, invalid).",
		}, []string{"result"})

	FieldViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profileform_field_violations_total",
			Help: "Validation violations reported per field.",
		}, []string{"field"})

	ActiveDrafts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "profileform_active_drafts",
			Help: "Number of draft sessions currently held in memory.",
		})

	DraftOpenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profileform_draft_open_total",
			Help: "Cumulative number of draft sessions started.",
		})

	DraftEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profileform_draft_evict_total",
			Help: "Cumulative number of draft sessions discarded, by reason.",
		}, []string{"reason"})

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profileform_notifications_total",
			Help: "Submission notifications by publisher and result (ok, error, dropped).",
		}, []string{"publisher", "result"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		FieldViolationsTotal,
		ActiveDrafts,
		DraftOpenTotal,
		DraftEvictTotal,
		NotificationsTotal,
	)
}
