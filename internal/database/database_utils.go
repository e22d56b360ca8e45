// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

const (
	schemaTimeout     = 30 * time.Second
	checkpointTimeout = 30 * time.Second
)

// schemaContext bounds schema work when the caller set no deadline.
func schemaContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, schemaTimeout)
}

// observe records a store call. Use as: defer db.observe("op", time.Now(), &err).
func (db *DB) observe(operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	metrics.RecordStoreQuery(operation, time.Since(start), err)
	if isConnectionError(err) {
		logging.Warn().Str("operation", operation).Str("driver", db.driver).Err(err).Msg("Store connection error")
	}
}

// Checkpoint flushes the DuckDB WAL. It is a no-op on Postgres.
func (db *DB) Checkpoint(ctx context.Context) error {
	if db.driver != config.DriverDuckDB {
		return nil
	}
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}
