// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the entry point for the Marquee discovery server.
//
// Marquee generates recommendation candidates from the user-content graph and
// the viewing context, and runs A/B experiments over recommendation
// strategies. The process hosts the candidate generators and the experiment
// service in-process, ingests exposure and conversion events from the
// feedback stream, and serves an admin HTTP listener.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Database: DuckDB or Postgres, schema migrations applied on open
//  4. Candidate generators: graph recommender and context filter
//  5. Experiments: assignment lock strategy and assignment cache
//  6. Feedback: Watermill transport (gochannel or NATS JetStream)
//  7. Supervisor tree: data, messaging and api layers
//
// # Configuration
//
// Common environment variables:
//
//	DATABASE_DRIVER=postgres
//	DATABASE_DSN=postgres://marquee:marquee@db:5432/marquee
//	EVENTS_TRANSPORT=nats
//	NATS_URL=nats://nats:4222
//	EXPERIMENT_ASSIGNMENT_LOCK=advisory
//	REDIS_ENABLED=true
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops every
// layer within the shutdown timeout, then the database is closed.
package main
