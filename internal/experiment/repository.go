// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists experiments. Implementations must be safe for
// concurrent use and honor ctx cancellation.
type Repository interface {
	// CreateExperiment stores a new experiment. Returns ErrConflict when the
	// name is taken.
	CreateExperiment(ctx context.Context, exp *Experiment) error

	// GetExperiment returns ErrNotFound when id is unknown.
	GetExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error)

	// UpdateStatus moves an experiment from one status to another only if its
	// current status equals from. Returns ErrNotFound for an unknown id and
	// ErrInvalidTransition when the current status differs.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error

	// CreateVariant stores a variant. Returns ErrConflict when the experiment
	// already has a variant with that name.
	CreateVariant(ctx context.Context, v *Variant) error

	// GetVariant returns ErrNotFound when id is unknown.
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)

	// ListVariants returns variants in creation order.
	ListVariants(ctx context.Context, experimentID uuid.UUID) ([]Variant, error)

	// GetAssignment returns ErrNotFound when the user has no assignment.
	GetAssignment(ctx context.Context, experimentID, userID uuid.UUID) (*Assignment, error)

	// InsertAssignment writes a if no assignment exists for its pair and
	// reports whether it did. An existing row is left untouched.
	InsertAssignment(ctx context.Context, a Assignment) (bool, error)

	// AppendMetric appends a metric row.
	AppendMetric(ctx context.Context, m Metric) error

	// AggregateMetrics returns totals keyed by variant id. Variants without
	// rows may be omitted.
	AggregateMetrics(ctx context.Context, experimentID uuid.UUID) (map[uuid.UUID]MetricTotals, error)
}
