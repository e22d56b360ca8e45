// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Locker serializes first assignment for an (experiment, user) pair when the
// store cannot provide an atomic insert-if-absent.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the lock and must be called exactly once.
	Lock(ctx context.Context, key string) (unlock func(), err error)

	// Name identifies the strategy in metrics and logs.
	Name() string
}

// AssignmentLockKey returns the lock key for a pair.
func AssignmentLockKey(experimentID, userID uuid.UUID) string {
	return "assignment:" + experimentID.String() + ":" + userID.String()
}

// LocalLocker is an in-process keyed mutex. It only serializes callers in the
// same process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

// Name implements Locker.
func (l *LocalLocker) Name() string { return "local" }

// Lock implements Locker.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.sem
				l.release(key, kl)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(key string, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// held returns the number of keys with waiters or holders.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// AssignmentCache is a read-through cache of assignments. Assignments never
// change once written, so entries never need invalidation. Implementations
// treat backend failures as misses.
type AssignmentCache interface {
	GetAssignment(ctx context.Context, experimentID, userID uuid.UUID) (*Variant, bool)
	SetAssignment(ctx context.Context, experimentID, userID uuid.UUID, v *Variant)
}
