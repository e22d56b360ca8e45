// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type assignmentKey struct {
	experimentID uuid.UUID
	userID       uuid.UUID
}

// MemoryRepository is an in-process Repository for tests and single-node
// deployments without a shared store.
type MemoryRepository struct {
	mu          sync.RWMutex
	experiments map[uuid.UUID]Experiment
	names       map[string]uuid.UUID
	variants    map[uuid.UUID]Variant
	order       map[uuid.UUID][]uuid.UUID
	assignments map[assignmentKey]Assignment
	metrics     []Metric
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		experiments: make(map[uuid.UUID]Experiment),
		names:       make(map[string]uuid.UUID),
		variants:    make(map[uuid.UUID]Variant),
		order:       make(map[uuid.UUID][]uuid.UUID),
		assignments: make(map[assignmentKey]Assignment),
	}
}

// CreateExperiment implements Repository.
func (r *MemoryRepository) CreateExperiment(ctx context.Context, exp *Experiment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[exp.Name]; taken {
		return ErrConflict
	}
	r.experiments[exp.ID] = *exp
	r.names[exp.Name] = exp.ID
	return nil
}

// GetExperiment implements Repository.
func (r *MemoryRepository) GetExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.experiments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &exp, nil
}

// UpdateStatus implements Repository.
func (r *MemoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.experiments[id]
	if !ok {
		return ErrNotFound
	}
	if exp.Status != from {
		return ErrInvalidTransition
	}
	exp.Status = to
	exp.UpdatedAt = at
	r.experiments[id] = exp
	return nil
}

// CreateVariant implements Repository.
func (r *MemoryRepository) CreateVariant(ctx context.Context, v *Variant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.experiments[v.ExperimentID]; !ok {
		return ErrNotFound
	}
	for _, id := range r.order[v.ExperimentID] {
		if r.variants[id].Name == v.Name {
			return ErrConflict
		}
	}
	r.variants[v.ID] = *v
	r.order[v.ExperimentID] = append(r.order[v.ExperimentID], v.ID)
	return nil
}

// GetVariant implements Repository.
func (r *MemoryRepository) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

// ListVariants implements Repository.
func (r *MemoryRepository) ListVariants(ctx context.Context, experimentID uuid.UUID) ([]Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.order[experimentID]
	out := make([]Variant, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.variants[id])
	}
	return out, nil
}

// GetAssignment implements Repository.
func (r *MemoryRepository) GetAssignment(ctx context.Context, experimentID, userID uuid.UUID) (*Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[assignmentKey{experimentID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

// InsertAssignment implements Repository.
func (r *MemoryRepository) InsertAssignment(ctx context.Context, a Assignment) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assignmentKey{a.ExperimentID, a.UserID}
	if _, exists := r.assignments[key]; exists {
		return false, nil
	}
	r.assignments[key] = a
	return true, nil
}

// AppendMetric implements Repository.
func (r *MemoryRepository) AppendMetric(ctx context.Context, m Metric) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.metrics = append(r.metrics, m)
	r.mu.Unlock()
	return nil
}

// AggregateMetrics implements Repository.
func (r *MemoryRepository) AggregateMetrics(ctx context.Context, experimentID uuid.UUID) (map[uuid.UUID]MetricTotals, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]MetricTotals)
	for _, m := range r.metrics {
		if m.ExperimentID != experimentID {
			continue
		}
		t := out[m.VariantID]
		switch m.Name {
		case MetricExposure:
			t.Exposures++
		case MetricConversion:
			t.Conversions++
			t.OutcomeCount++
			t.OutcomeSum += m.Value
		default:
			t.OutcomeCount++
			t.OutcomeSum += m.Value
		}
		out[m.VariantID] = t
	}
	return out, nil
}

// Assignments returns the number of stored assignments.
func (r *MemoryRepository) Assignments() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assignments)
}
