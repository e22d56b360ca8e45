// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/experiment"
)

type assignmentKey struct {
	experimentID uuid.UUID
	userID       uuid.UUID
}

// AssignmentLRU is an in-process experiment.AssignmentCache.
type AssignmentLRU struct {
	lru *LRU[assignmentKey, experiment.Variant]
}

var _ experiment.AssignmentCache = (*AssignmentLRU)(nil)

// NewAssignmentLRU creates an assignment cache holding up to capacity pairs.
func NewAssignmentLRU(capacity int, ttl time.Duration) *AssignmentLRU {
	return &AssignmentLRU{lru: NewLRU[assignmentKey, experiment.Variant](capacity, ttl)}
}

// GetAssignment implements experiment.AssignmentCache.
func (a *AssignmentLRU) GetAssignment(_ context.Context, experimentID, userID uuid.UUID) (*experiment.Variant, bool) {
	v, ok := a.lru.Get(assignmentKey{experimentID, userID})
	if !ok {
		return nil, false
	}
	return &v, true
}

// SetAssignment implements experiment.AssignmentCache.
func (a *AssignmentLRU) SetAssignment(_ context.Context, experimentID, userID uuid.UUID, v *experiment.Variant) {
	if v == nil {
		return
	}
	a.lru.Add(assignmentKey{experimentID, userID}, *v)
}

// Stats returns hit and miss counts and the current size.
func (a *AssignmentLRU) Stats() (hits, misses int64, size int) {
	return a.lru.Stats()
}
