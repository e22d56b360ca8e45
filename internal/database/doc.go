// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package database is the shared relational store behind the discovery core.
//
// # Overview
//
// A single DB type runs on either DuckDB (embedded, the default) or Postgres
// (shared between service instances, through pgx). It implements the read
// sides the recommenders need and the experiment repository:
//
//   - graph_store.go: graph.Store (seed history, attribute neighbours,
//     similar users, highly rated items)
//   - context_store.go: contextual.Store (time window, device, mood and genre
//     candidates, mood table check)
//   - experiment_repository.go: experiment.Repository
//   - advisory_lock.go: experiment.Locker on Postgres advisory locks
//   - seed.go: catalog and watch history writers used by tests and fixtures
//
// Core lifecycle:
//   - database.go: open, initialize, close
//   - database_connection.go: driver selection and pool configuration
//   - database_schema.go: tables and indexes
//   - migrations.go: versioned schema migrations
//   - errors.go: error classification and close helpers
//
// # Portability
//
// All statements use numbered placeholders and cast UUID parameters in SQL,
// see the query subpackage. Column types are limited to those both engines
// accept (UUID, TEXT, INTEGER, DOUBLE PRECISION, TIMESTAMP). Timestamps are
// written in UTC by the caller.
//
// # Assignment races
//
// Assignments are inserted with ON CONFLICT (experiment_id, user_id) DO
// NOTHING. A DuckDB transaction conflict on that insert means another
// connection won, and is reported as "not inserted" so the caller re-reads.
//
// # Metrics
//
// Every store method records its duration and failures through
// internal/metrics, labeled by operation.
package database
