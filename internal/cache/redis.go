// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/experiment"
)

// RedisAssignmentCache is a shared experiment.AssignmentCache. Variants are
// stored as JSON under "<prefix>assignment:<experiment>:<user>".
type RedisAssignmentCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

var _ experiment.AssignmentCache = (*RedisAssignmentCache)(nil)

// NewRedisAssignmentCache creates a Redis-backed assignment cache. A zero ttl
// keeps entries until Redis evicts them.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRedisAssignmentCache(client redis.Cmdable, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisAssignmentCache {
	return &RedisAssignmentCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "assignment_cache").Logger(),
	}
}

func (r *RedisAssignmentCache) key(experimentID, userID uuid.UUID) string {
	return assignmentCacheKey(r.prefix, experimentID, userID)
}

func assignmentCacheKey(prefix string, experimentID, userID uuid.UUID) string {
	return prefix + "assignment:" + experimentID.String() + ":" + userID.String()
}

// GetAssignment implements experiment.AssignmentCache. Backend and decode
// errors are logged and reported as misses.
func (r *RedisAssignmentCache) GetAssignment(ctx context.Context, experimentID, userID uuid.UUID) (*experiment.Variant, bool) {
	data, err := r.client.Get(ctx, r.key(experimentID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("experiment_id", experimentID.String()).Msg("assignment cache read failed")
		return nil, false
	}

	var v experiment.Variant
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn().Err(err).Str("experiment_id", experimentID.String()).Msg("discarding undecodable cached assignment")
		return nil, false
	}
	return &v, true
}

// SetAssignment implements experiment.AssignmentCache.
func (r *RedisAssignmentCache) SetAssignment(ctx context.Context, experimentID, userID uuid.UUID, v *experiment.Variant) {
	if v == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn().Err(err).Msg("encode assignment for cache")
		return
	}
	if err := r.client.Set(ctx, r.key(experimentID, userID), data, r.ttl).Err(); err != nil {
		r.logger.Debug().Err(err).Str("experiment_id", experimentID.String()).Msg("assignment cache write failed")
	}
}

// unlockScript deletes the lock only if it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is an experiment.Locker backed by SET NX with an expiry. The
// expiry bounds how long a crashed holder can block others.
type RedisLocker struct {
	client RedisClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

var _ experiment.Locker = (*RedisLocker)(nil)

// RedisClient is the subset of go-redis clients the locker needs.
type RedisClient interface {
	redis.Cmdable
	redis.Scripter
}

// NewRedisLocker creates a locker. ttl is the lock expiry.
func NewRedisLocker(client RedisClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  10 * time.Millisecond,
	}
}

// Name implements experiment.Locker.
func (l *RedisLocker) Name() string { return "redis" }

// Lock implements experiment.Locker. It polls until the key is free or ctx
// is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire redis lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// An expired lock is released by Redis; the script then deletes nothing.
	_ = unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
}
