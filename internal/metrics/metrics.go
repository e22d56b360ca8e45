// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Assignment outcomes.
const (
	AssignmentExisting = "existing"
	AssignmentCached   = "cache"
	AssignmentCreated  = "created"
	AssignmentRaceLost = "race_lost"
)

var (
	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_store_query_duration_seconds",
			Help:    "Duration of relational store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_store_query_errors_total",
			Help: "Total number of relational store query errors",
		},
		[]string{"operation", "error_type"},
	)

	// Candidate Generation Metrics
	CandidatesDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_candidates_duration_seconds",
			Help:    "Time to generate a candidate list",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"component"}, // "graph", "context"
	)

	CandidatesReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_candidates_returned",
			Help:    "Number of candidates returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200},
		},
		[]string{"component"},
	)

	CandidatesErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_candidates_errors_total",
			Help: "Total number of failed candidate generation requests",
		},
		[]string{"component"},
	)

	MoodFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_mood_fallbacks_total",
			Help: "Mood passes that fell back to genre matching",
		},
		[]string{"reason"}, // "unavailable", "empty"
	)

	// Experiment Metrics
	VariantAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_variant_assignments_total",
			Help: "Variant assignment lookups by outcome",
		},
		[]string{"outcome"},
	)

	ExperimentMetricWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_experiment_metric_writes_total",
			Help: "Experiment metric facts appended",
		},
		[]string{"kind"}, // "exposure", "conversion"
	)

	AssignmentLockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_assignment_lock_wait_seconds",
			Help:    "Time spent acquiring the per-user assignment lock",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"strategy"},
	)

	// Feedback Ingestion Metrics
	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_feedback_events_total",
			Help: "Feedback events consumed by topic and result",
		},
		[]string{"topic", "result"}, // result: "recorded", "malformed", "rejected", "failed"
	)

	// Admin HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marquee_http_request_duration_seconds",
			Help:    "Admin HTTP request duration by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordStoreQuery records a store query and, on failure, its error class.
func RecordStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// errorType keeps label cardinality bounded.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "query"
	}
}

// RecordCandidates records one candidate generation request.
func RecordCandidates(component string, duration time.Duration, returned int, err error) {
	CandidatesDuration.WithLabelValues(component).Observe(duration.Seconds())
	if err != nil {
		CandidatesErrors.WithLabelValues(component).Inc()
		return
	}
	CandidatesReturned.WithLabelValues(component).Observe(float64(returned))
}

// RecordMoodFallback records a mood pass that used genre matching instead of mood tags.
func RecordMoodFallback(reason string) {
	MoodFallbacks.WithLabelValues(reason).Inc()
}

// RecordAssignment records a variant assignment outcome.
func RecordAssignment(outcome string) {
	VariantAssignments.WithLabelValues(outcome).Inc()
}

// RecordMetricWrite records an appended exposure or conversion fact.
func RecordMetricWrite(kind string) {
	ExperimentMetricWrites.WithLabelValues(kind).Inc()
}

// RecordLockWait records time spent waiting on an assignment lock.
func RecordLockWait(strategy string, wait time.Duration) {
	AssignmentLockWait.WithLabelValues(strategy).Observe(wait.Seconds())
}

// RecordFeedbackEvent records a consumed feedback event.
func RecordFeedbackEvent(topic, result string) {
	FeedbackEvents.WithLabelValues(topic, result).Inc()
}

// RecordHTTPRequest records an admin HTTP request. route is the matched
// pattern, not the raw path.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
