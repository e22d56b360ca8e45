// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// weightEpsilon is the tolerance for the content weight sum check.
const weightEpsilon = 1e-9

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRedis(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.Discovery.Graph.Validate(); err != nil {
		return err
	}
	if err := c.validateContext(); err != nil {
		return err
	}
	return c.validateExperiments()
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, postgres (got %q)", c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 0 || c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database connection pool sizes must be non-negative")
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled {
		if c.Experiments.AssignmentLock == LockRedis {
			return fmt.Errorf("EXPERIMENT_ASSIGNMENT_LOCK=redis requires REDIS_ENABLED=true")
		}
		return nil
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("REDIS_DB must be non-negative, got %d", c.Redis.DB)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	switch c.Events.Transport {
	case TransportGoChannel:
	case TransportNATS:
		u, err := url.Parse(c.Events.NATSURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("NATS_URL is invalid: %q", c.Events.NATSURL)
		}
		if u.Scheme != "nats" && u.Scheme != "tls" {
			return fmt.Errorf("NATS_URL scheme must be nats or tls, got: %s", u.Scheme)
		}
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: gochannel, nats (got %q)", c.Events.Transport)
	}
	if c.Events.ExposureTopic == "" || c.Events.ConversionTopic == "" {
		return fmt.Errorf("exposure and conversion topics are required")
	}
	if c.Events.ExposureTopic == c.Events.ConversionTopic {
		return fmt.Errorf("exposure and conversion topics must differ")
	}
	if c.Events.RetryCount < 0 {
		return fmt.Errorf("EVENTS_RETRY_COUNT must be non-negative, got %d", c.Events.RetryCount)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL is invalid: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Validate checks the graph weights and bounds.
func (g GraphTuning) Validate() error {
	for name, w := range map[string]float64{
		"genre_weight":         g.GenreWeight,
		"cast_weight":          g.CastWeight,
		"director_weight":      g.DirectorWeight,
		"theme_weight":         g.ThemeWeight,
		"content_weight":       g.ContentWeight,
		"collaborative_weight": g.CollaborativeWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("discovery.graph.%s must be in [0, 1], got %v", name, w)
		}
	}
	if sum := g.GenreWeight + g.CastWeight + g.DirectorWeight + g.ThemeWeight; math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("discovery.graph content weights must sum to 1.0, got %v", sum)
	}
	if g.CollaborativeDecay <= 0 || g.CollaborativeDecay >= 1 {
		return fmt.Errorf("discovery.graph.collaborative_decay must be in (0, 1), got %v", g.CollaborativeDecay)
	}
	if g.HighCompletion < 0 || g.HighCompletion > 1 {
		return fmt.Errorf("discovery.graph.high_completion must be in [0, 1], got %v", g.HighCompletion)
	}
	for name, n := range map[string]int{
		"max_seeds":          g.MaxSeeds,
		"max_cast_per_seed":  g.MaxCastPerSeed,
		"genre_limit":        g.GenreLimit,
		"cast_limit":         g.CastLimit,
		"director_limit":     g.DirectorLimit,
		"theme_limit":        g.ThemeLimit,
		"similar_users":      g.SimilarUsers,
		"min_overlap":        g.MinOverlap,
		"items_per_neighbor": g.ItemsPerNeighbor,
	} {
		if n <= 0 {
			return fmt.Errorf("discovery.graph.%s must be positive, got %d", name, n)
		}
	}
	if g.MaxConcurrency < 0 {
		return fmt.Errorf("discovery.graph.max_concurrency must be non-negative, got %d", g.MaxConcurrency)
	}
	return nil
}

func (c *Config) validateContext() error {
	ctx := c.Discovery.Context
	if ctx.TimeOfDayLimit <= 0 || ctx.DeviceLimit <= 0 || ctx.MoodLimit <= 0 {
		return fmt.Errorf("discovery.context limits must be positive")
	}
	if ctx.MinCompletion < 0 || ctx.MinCompletion >= 1 {
		return fmt.Errorf("discovery.context.min_completion must be in [0, 1), got %v", ctx.MinCompletion)
	}
	if c.Discovery.MoodRefreshInterval < 0 {
		return fmt.Errorf("discovery.mood_refresh_interval must be non-negative")
	}
	return nil
}

func (c *Config) validateExperiments() error {
	switch c.Experiments.AssignmentLock {
	case LockNone, LockLocal, LockRedis:
	case LockAdvisory:
		if c.Database.Driver != DriverPostgres {
			return fmt.Errorf("EXPERIMENT_ASSIGNMENT_LOCK=advisory requires DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("EXPERIMENT_ASSIGNMENT_LOCK must be one of: none, local, advisory, redis (got %q)", c.Experiments.AssignmentLock)
	}
	if c.Experiments.AssignmentLockTimeout <= 0 {
		return fmt.Errorf("EXPERIMENT_ASSIGNMENT_LOCK_TIMEOUT must be positive")
	}
	if c.Experiments.CacheSize < 0 {
		return fmt.Errorf("EXPERIMENT_CACHE_SIZE must be non-negative, got %d", c.Experiments.CacheSize)
	}
	return nil
}
