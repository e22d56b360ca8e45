// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"context"
	"sync"
	"time"
)

// MoodCapability caches whether the mood tag table can serve mood passes.
//
// The first call to Available checks the store. Successful answers are kept
// until Refresh is called; a failed check is not cached, so the next request
// checks again.
type MoodCapability struct {
	check func(ctx context.Context) (bool, error)

	mu        sync.Mutex
	resolved  bool
	available bool
	checkedAt time.Time
}

// NewMoodCapability creates a capability backed by the store's check.
func NewMoodCapability(store Store) *MoodCapability {
	return &MoodCapability{check: store.HasMoodTags}
}

// Available reports whether mood tags can be used. A check error is returned
// to the caller, which treats it as "unavailable" for this request.
func (m *MoodCapability) Available(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved {
		return m.available, nil
	}
	return m.resolveLocked(ctx)
}

// Refresh re-checks the store and replaces the cached answer.
func (m *MoodCapability) Refresh(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(ctx)
}

// CheckedAt returns when the cached answer was resolved, or zero if never.
func (m *MoodCapability) CheckedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkedAt
}

func (m *MoodCapability) resolveLocked(ctx context.Context) (bool, error) {
	ok, err := m.check(ctx)
	if err != nil {
		return false, err
	}
	m.resolved = true
	m.available = ok
	m.checkedAt = time.Now()
	return ok, nil
}
