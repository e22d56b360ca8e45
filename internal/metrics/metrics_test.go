// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantType  string
	}{
		{name: "success", operation: "seed_history", err: nil},
		{name: "timeout", operation: "similar_users", err: fmt.Errorf("query: %w", context.DeadlineExceeded), wantType: "timeout"},
		{name: "canceled", operation: "genre_neighbors", err: context.Canceled, wantType: "canceled"},
		{name: "generic", operation: "insert_assignment", err: errors.New("connection refused"), wantType: "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := 0.0
			if tt.wantType != "" {
				before = testutil.ToFloat64(StoreQueryErrors.WithLabelValues(tt.operation, tt.wantType))
			}

			RecordStoreQuery(tt.operation, 3*time.Millisecond, tt.err)

			if tt.wantType == "" {
				return
			}
			after := testutil.ToFloat64(StoreQueryErrors.WithLabelValues(tt.operation, tt.wantType))
			if after-before != 1 {
				t.Errorf("error counter delta = %v, want 1", after-before)
			}
		})
	}
}

func TestRecordCandidates(t *testing.T) {
	beforeErr := testutil.ToFloat64(CandidatesErrors.WithLabelValues("graph"))

	RecordCandidates("graph", 10*time.Millisecond, 20, nil)
	RecordCandidates("graph", 10*time.Millisecond, 0, errors.New("boom"))

	if got := testutil.ToFloat64(CandidatesErrors.WithLabelValues("graph")) - beforeErr; got != 1 {
		t.Errorf("CandidatesErrors delta = %v, want 1", got)
	}
}

func TestRecordCounters(t *testing.T) {
	tests := []struct {
		name   string
		record func()
		value  func() float64
	}{
		{
			name:   "assignment",
			record: func() { RecordAssignment(AssignmentRaceLost) },
			value:  func() float64 { return testutil.ToFloat64(VariantAssignments.WithLabelValues(AssignmentRaceLost)) },
		},
		{
			name:   "metric write",
			record: func() { RecordMetricWrite("exposure") },
			value:  func() float64 { return testutil.ToFloat64(ExperimentMetricWrites.WithLabelValues("exposure")) },
		},
		{
			name:   "mood fallback",
			record: func() { RecordMoodFallback("empty") },
			value:  func() float64 { return testutil.ToFloat64(MoodFallbacks.WithLabelValues("empty")) },
		},
		{
			name:   "feedback event",
			record: func() { RecordFeedbackEvent("discovery.exposure", "ok") },
			value: func() float64 {
				return testutil.ToFloat64(FeedbackEvents.WithLabelValues("discovery.exposure", "ok"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.value()
			tt.record()
			if got := tt.value() - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordLockWait(t *testing.T) {
	RecordLockWait("local", time.Millisecond)
	if n := testutil.CollectAndCount(AssignmentLockWait); n == 0 {
		t.Error("expected lock wait histogram to have series")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/readyz", "200", 5*time.Millisecond)
	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("expected http request histogram to have series")
	}
}
