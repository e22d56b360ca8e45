// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package cache provides assignment caching and distributed locking for the
experimentation service.

# Overview

Variant assignments are written once and never change, so they can be cached
without invalidation. The package offers two experiment.AssignmentCache
implementations and one experiment.Locker:

  - AssignmentLRU: bounded in-process cache on top of the generic LRU
  - RedisAssignmentCache: shared cache for multi-instance deployments
  - RedisLocker: SET NX lock with token-checked release

Both caches treat backend failures as misses. A cache never changes which
variant a user sees; it only saves a repository round trip.

# LRU

LRU is a generic, thread-safe least-recently-used cache with lazy TTL
expiration. Get, Add and Remove are O(1) using a map plus a doubly-linked
list with sentinel nodes.

	lru := cache.NewLRU[string, int](1000, 5*time.Minute)
	lru.Add("a", 1)
	if v, ok := lru.Get("a"); ok {
	    fmt.Println(v)
	}

# Redis

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	svc := experiment.NewService(repo, logger,
	    experiment.WithAssignmentCache(cache.NewRedisAssignmentCache(client, "marquee:", 24*time.Hour, logger)),
	    experiment.WithLocker(cache.NewRedisLocker(client, "marquee:", 5*time.Second)),
	)

# Thread Safety

All types are safe for concurrent use.
*/
package cache
