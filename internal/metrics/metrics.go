// Package metrics holds Prometheus instruments that are used across the
// site.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveVisitors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_visitors",
			Help: "Number of visitor sessions currently held in memory.",
		})

	VisitorLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visitor_load_total",
			Help: "Cumulative number of visitor sessions created.",
		})

	VisitorEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitor_evict_total",
			Help: "Cumulative number of visitor sessions evicted, by reason.",
		}, []string{"reason"})

	PageRenderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_render_total",
			Help: "Pages rendered, by page and result.",
		}, []string{"page", "result"})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submit attempts, by form and outcome.",
		}, []string{"form", "outcome"})

	SubmissionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_submission_duration_seconds",
			Help:    "Time from submit to outcome, validation and delivery included.",
			Buckets: []float64{.005, .05, .25, .5, 1, 1.5, 2, 3, 5, 10},
		}, []string{"form"})

	ActionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_action_errors_total",
			Help: "Post-submit action failures, by form and action type.",
		}, []string{"form", "action"})
)

func init() {
	prometheus.MustRegister(
		ActiveVisitors,
		VisitorLoadTotal,
		VisitorEvictTotal,
		PageRenderTotal,
		SubmissionsTotal,
		SubmissionDuration,
		ActionErrorsTotal,
	)
}

// ObserveSubmission records one Submit outcome.  Its signature matches
// contact.Options.Observe.
func ObserveSubmission(form, outcome string, elapsed time.Duration) {
	SubmissionsTotal.WithLabelValues(form, outcome).Inc()
	SubmissionDuration.WithLabelValues(form).Observe(elapsed.Seconds())
}
