// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/config"
)

// open returns a pool for the configured driver. DuckDB is opened with
// extension autoloading disabled; the schema needs none.
func open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case config.DriverDuckDB:
		conn, err := sql.Open("duckdb", duckDBConnString(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open duckdb: %w", err)
		}
		return conn, nil
	case config.DriverPostgres:
		conn, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func duckDBConnString(cfg *config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	params := url.Values{}
	params.Set("access_mode", "read_write")
	params.Set("threads", strconv.Itoa(threads))
	params.Set("autoinstall_known_extensions", "false")
	params.Set("autoload_known_extensions", "false")
	if cfg.MaxMemory != "" {
		params.Set("max_memory", cfg.MaxMemory)
	}
	return cfg.Path + "?" + params.Encode()
}

// configureConnectionPool applies pool limits, defaulting to NumCPU open
// connections and two idle ones.
func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	maxIdle := db.cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	lifetime := db.cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(maxIdle)
	db.conn.SetConnMaxLifetime(lifetime)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isConnectionError reports whether err indicates a lost connection.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isTransactionConflict reports whether err is a DuckDB optimistic
// concurrency conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on tuple") ||
		strings.Contains(msg, "Conflict on update")
}
