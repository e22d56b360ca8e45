// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/logging"
)

const advisoryUnlockTimeout = 5 * time.Second

var _ experiment.Locker = (*AdvisoryLocker)(nil)

// AdvisoryLocker serializes assignment across instances with Postgres
// session-level advisory locks. Each held lock pins one pool connection.
type AdvisoryLocker struct {
	db *DB
}

// AdvisoryLocker returns a Locker backed by this database. Only Postgres
// supports advisory locks.
func (db *DB) AdvisoryLocker() (*AdvisoryLocker, error) {
	if db.driver != config.DriverPostgres {
		return nil, fmt.Errorf("advisory locks require postgres, have %s", db.driver)
	}
	return &AdvisoryLocker{db: db}, nil
}

// Name implements experiment.Locker.
func (l *AdvisoryLocker) Name() string { return "advisory" }

// advisoryKey maps a lock key onto the bigint advisory lock space.
func advisoryKey(key string) int64 {
	return int64(xxhash.Sum64String(key)) //nolint:gosec // wraparound is fine for a lock id
}

// Lock implements experiment.Locker.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := l.db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for advisory lock: %w", err)
	}

	id := advisoryKey(key)
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, id); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("advisory lock %s: %w", key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), advisoryUnlockTimeout)
		defer cancel()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, id); err != nil {
			logging.Warn().Err(err).Str("key", key).Msg("Advisory unlock failed, discarding connection")
			// The session still holds the lock; drop the connection so
			// Postgres releases it.
			_ = conn.Raw(func(interface{}) error { return driver.ErrBadConn })
		}
		closeWithLog(conn, "advisory lock connection")
	}, nil
}
