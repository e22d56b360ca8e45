// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
)

// Migration is a versioned schema change.
type Migration struct {
	Version     int
	Name        string
	Description string
	Statements  []string
	AppliedAt   time.Time // populated when read back
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
)`

// migrations returns every migration in order. Migrations are append-only:
// never edit or remove one that has shipped.
func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "catalog_schema",
			Description: "Content catalog, relations and watch progress",
			Statements:  catalogTables,
		},
		{
			Version:     2,
			Name:        "experiment_schema",
			Description: "Experiments, variants, assignments and metric facts",
			Statements:  experimentTables,
		},
	}
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeQuietly(rows)

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies migrations not yet recorded, each in its own
// transaction.
func (db *DB) runVersionedMigrations(ctx context.Context) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	newMigrations := 0
	for _, m := range migrations() {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx)
		}
	}()

	for _, stmt := range m.Statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (version) DO NOTHING`,
		m.Version, m.Name, m.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration version.
func (db *DB) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// MigrationHistory returns applied migrations in order.
func (db *DB) MigrationHistory(ctx context.Context) ([]Migration, error) {
	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	history := make([]Migration, 0, len(applied))
	for _, m := range migrations() {
		if a, ok := applied[m.Version]; ok {
			history = append(history, a)
		}
	}
	return history, nil
}

func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
