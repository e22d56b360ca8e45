// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/database"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/feedback"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/contextual"
	"github.com/tomtom215/marquee/internal/recommend/graph"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

const redisPingTimeout = 5 * time.Second

// app holds the in-process discovery components. The binary itself only
// serves the admin listener and the feedback consumer; the candidate
// generators and the publisher are kept for in-process callers embedding
// the server.
type app struct {
	recommender *graph.Recommender
	filter      *contextual.Filter
	experiments *experiment.Service

	redis     *redis.Client
	transport *feedback.Transport
	// publisher writes exposures and conversions onto transport for
	// co-located producers. Nil when events are disabled.
	publisher *feedback.Publisher
	wmLogger  watermill.LoggerAdapter
}

// newApp builds the candidate generators, the experiment service and the
// feedback transport on top of db.
func newApp(ctx context.Context, cfg *config.Config, db *database.DB) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.recommender, err = graph.NewRecommender(db, graphConfig(cfg.Discovery.Graph), logging.Logger())
	if err != nil {
		return nil, err
	}
	a.filter, err = contextual.NewFilter(db, contextConfig(cfg.Discovery.Context), logging.Logger())
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		a.redis = newRedisClient(&cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		logging.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	locker, err := assignmentLocker(cfg, db, a.redis)
	if err != nil {
		return nil, err
	}
	opts := []experiment.Option{experiment.WithLockTimeout(cfg.Experiments.AssignmentLockTimeout)}
	if locker != nil {
		opts = append(opts, experiment.WithLocker(locker))
	}
	if c := assignmentCache(cfg, a.redis); c != nil {
		opts = append(opts, experiment.WithAssignmentCache(c))
	}
	a.experiments = experiment.NewService(db, logging.Logger(), opts...)

	if cfg.Events.Enabled {
		a.wmLogger = feedback.NewLogger()
		a.transport, err = feedback.NewTransport(&cfg.Events, a.wmLogger)
		if err != nil {
			return nil, fmt.Errorf("create feedback transport: %w", err)
		}
		a.publisher = feedback.NewPublisher(a.transport.Publisher, topics(&cfg.Events))
	}

	return a, nil
}

// feedbackRunnerFactory builds a fresh consumer per supervisor restart.
func (a *app) feedbackRunnerFactory(cfg *config.Config) func() (services.FeedbackRunner, error) {
	consumerCfg := consumerConfig(&cfg.Events)
	return func() (services.FeedbackRunner, error) {
		c, err := feedback.NewConsumer(
			consumerCfg,
			a.transport.Subscriber,
			a.transport.Publisher,
			a.experiments,
			a.wmLogger,
			logging.Logger(),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Close releases the transport and the Redis client.
func (a *app) Close() {
	var errs []error
	if a.transport != nil {
		errs = append(errs, a.transport.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Error closing components")
	}
}

func graphConfig(t config.GraphTuning) recommend.GraphConfig {
	return recommend.GraphConfig{
		Weights: recommend.ContentWeights{
			Genre:    t.GenreWeight,
			Cast:     t.CastWeight,
			Director: t.DirectorWeight,
			Theme:    t.ThemeWeight,
		},
		ContentWeight:       t.ContentWeight,
		CollaborativeWeight: t.CollaborativeWeight,
		CollaborativeDecay:  t.CollaborativeDecay,
		MaxSeeds:            t.MaxSeeds,
		MaxCastPerSeed:      t.MaxCastPerSeed,
		GenreLimit:          t.GenreLimit,
		CastLimit:           t.CastLimit,
		DirectorLimit:       t.DirectorLimit,
		ThemeLimit:          t.ThemeLimit,
		SimilarUsers:        t.SimilarUsers,
		MinOverlap:          t.MinOverlap,
		ItemsPerNeighbor:    t.ItemsPerNeighbor,
		HighCompletion:      t.HighCompletion,
		MaxConcurrency:      t.MaxConcurrency,
	}
}

// contextConfig overlays the tunable bounds on the built-in mood and
// runtime tables.
func contextConfig(t config.ContextTuning) recommend.ContextConfig {
	c := recommend.DefaultContextConfig()
	c.TimeOfDayLimit = t.TimeOfDayLimit
	c.DeviceLimit = t.DeviceLimit
	c.MoodLimit = t.MoodLimit
	c.MinCompletion = t.MinCompletion
	return c
}

func newRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
}

// assignmentLocker returns nil for the "none" strategy.
func assignmentLocker(cfg *config.Config, db *database.DB, rdb *redis.Client) (experiment.Locker, error) {
	switch cfg.Experiments.AssignmentLock {
	case config.LockNone, "":
		return nil, nil
	case config.LockLocal:
		return experiment.NewLocalLocker(), nil
	case config.LockAdvisory:
		return db.AdvisoryLocker()
	case config.LockRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis assignment lock requires a redis client")
		}
		return cache.NewRedisLocker(rdb, cfg.Redis.KeyPrefix, cfg.Experiments.AssignmentLockTimeout), nil
	default:
		return nil, fmt.Errorf("unknown assignment lock %q", cfg.Experiments.AssignmentLock)
	}
}

// assignmentCache prefers the in-process LRU. Redis is used only when the
// LRU is disabled.
func assignmentCache(cfg *config.Config, rdb *redis.Client) experiment.AssignmentCache {
	switch {
	case cfg.Experiments.CacheSize > 0:
		return cache.NewAssignmentLRU(cfg.Experiments.CacheSize, cfg.Experiments.CacheTTL)
	case rdb != nil:
		return cache.NewRedisAssignmentCache(rdb, cfg.Redis.KeyPrefix, cfg.Redis.AssignmentTTL, logging.Logger())
	default:
		return nil
	}
}

func topics(cfg *config.EventsConfig) feedback.Topics {
	return feedback.Topics{
		Exposure:    cfg.ExposureTopic,
		Conversion:  cfg.ConversionTopic,
		PoisonQueue: cfg.PoisonQueueTopic,
	}
}

func consumerConfig(cfg *config.EventsConfig) feedback.ConsumerConfig {
	c := feedback.DefaultConsumerConfig()
	c.Topics = topics(cfg)
	if cfg.CloseTimeout > 0 {
		c.CloseTimeout = cfg.CloseTimeout
	}
	if cfg.RetryCount >= 0 {
		c.RetryMaxRetries = cfg.RetryCount
	}
	if cfg.RetryInitialInterval > 0 {
		c.RetryInitialInterval = cfg.RetryInitialInterval
	}
	return c
}
