// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
)

// DB wraps the relational store connection pool.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	driver string
}

// New opens the configured store and brings its schema up to date.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Driver == config.DriverDuckDB {
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
	}

	conn, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, cfg: cfg, driver: cfg.Driver}
	db.configureConnectionPool()

	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	if err := db.initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", cfg.Driver).
		Bool("mood_table", cfg.CreateMoodTable).
		Msg("Database ready")
	return db, nil
}

// ensureDir creates the parent directory of a DuckDB file.
func ensureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// initialize runs migrations and optional schema pieces.
func (db *DB) initialize(ctx context.Context) error {
	if err := db.runVersionedMigrations(ctx); err != nil {
		return err
	}
	if db.cfg.CreateMoodTable {
		if err := db.createMoodTable(ctx); err != nil {
			return err
		}
	}
	if !db.cfg.SkipIndexes {
		if err := db.createIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints a DuckDB file and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.driver == config.DriverDuckDB && db.cfg.Path != ":memory:" {
		ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}
