// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an experiment.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Metric names with fixed meaning.
const (
	MetricExposure   = "exposure"
	MetricConversion = "conversion"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusRunning, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether an experiment may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusPaused || next == StatusCompleted
	}
	return false
}

// Experiment is a named A/B test.
type Experiment struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Status            Status    `json:"status"`
	TrafficAllocation float64   `json:"traffic_allocation"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Variant is one arm of an experiment. Config is opaque to this package.
type Variant struct {
	ID           uuid.UUID       `json:"id"`
	ExperimentID uuid.UUID       `json:"experiment_id"`
	Name         string          `json:"name"`
	Weight       float64         `json:"weight"`
	Config       json.RawMessage `json:"config,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Assignment binds a user to a variant. It is written once and never updated.
type Assignment struct {
	ExperimentID uuid.UUID `json:"experiment_id"`
	UserID       uuid.UUID `json:"user_id"`
	VariantID    uuid.UUID `json:"variant_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// Metric is an append-only fact row.
type Metric struct {
	ExperimentID uuid.UUID `json:"experiment_id"`
	VariantID    uuid.UUID `json:"variant_id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"metric_name"`
	Value        float64   `json:"metric_value"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// MetricTotals are the raw per-variant aggregates a Repository returns.
type MetricTotals struct {
	Exposures    int64
	Conversions  int64
	OutcomeCount int64
	OutcomeSum   float64
}

// VariantMetrics summarizes one variant.
type VariantMetrics struct {
	VariantID      uuid.UUID `json:"variant_id"`
	VariantName    string    `json:"variant_name"`
	Exposures      int64     `json:"exposures"`
	Conversions    int64     `json:"conversions"`
	ConversionRate float64   `json:"conversion_rate"`
	AvgMetricValue float64   `json:"avg_metric_value"`
}

// ExperimentMetrics summarizes every variant of an experiment, in variant order.
type ExperimentMetrics struct {
	ExperimentID   uuid.UUID        `json:"experiment_id"`
	VariantMetrics []VariantMetrics `json:"variant_metrics"`
}

// summarize turns raw totals into reported metrics.
func summarize(v Variant, t MetricTotals) VariantMetrics {
	m := VariantMetrics{
		VariantID:   v.ID,
		VariantName: v.Name,
		Exposures:   t.Exposures,
		Conversions: t.Conversions,
	}
	if t.Exposures > 0 {
		m.ConversionRate = float64(t.Conversions) / float64(t.Exposures)
	}
	if t.OutcomeCount > 0 {
		m.AvgMetricValue = t.OutcomeSum / float64(t.OutcomeCount)
	}
	return m
}

// CreateExperimentInput is the input to CreateExperiment.
type CreateExperimentInput struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Description       string  `json:"description,omitempty" validate:"max=2000"`
	TrafficAllocation float64 `json:"traffic_allocation" validate:"gte=0,lte=1"`
}

// AddVariantInput is the input to AddVariant.
type AddVariantInput struct {
	Name   string          `json:"name" validate:"required,max=200"`
	Weight float64         `json:"weight" validate:"gt=0"`
	Config json.RawMessage `json:"config,omitempty"`
}

// conversionInput validates RecordConversion arguments.
type conversionInput struct {
	ExperimentID uuid.UUID `json:"experiment_id" validate:"uuid_set"`
	VariantID    uuid.UUID `json:"variant_id" validate:"uuid_set"`
	UserID       uuid.UUID `json:"user_id" validate:"uuid_set"`
	Name         string    `json:"metric_name" validate:"metric_name"`
}
