// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads and validates the Marquee discovery service configuration.
//
// Configuration is layered with Koanf v2, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, then config.yaml / /etc/marquee/config.yaml)
//  3. Environment variables (explicit mapping in envTransformFunc)
//
// After unmarshaling, Config.Validate runs cross-field checks. The most
// important one guards the graph content weights: genre, cast, director and
// theme must sum to 1.0, otherwise content affinity is silently rescaled
// against the collaborative signal in the final fusion.
//
// # Sections
//
//   - database: duckdb (embedded, default) or postgres (shared, multi-instance)
//   - redis: optional assignment cache and distributed assignment lock
//   - events: exposure/conversion ingestion over gochannel or NATS
//   - server: admin listener (/healthz, /readyz, /metrics)
//   - logging: zerolog level, format, caller
//   - discovery: graph and context tuning
//   - experiments: assignment serialization strategy and cache
//
// # Example
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
package config
