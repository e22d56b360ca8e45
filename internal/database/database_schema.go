// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
database_schema.go - Schema Management

Tables:
  - content: catalog rows with popularity_score and nullable runtime_minutes
  - content_genres, content_themes: (content_id, value) relations
  - credits: (content_id, person_id, role_type, billing_order), role_type is
    'actor' or 'director'
  - watch_progress: one row per (user_id, content_id), upserted by playback
  - content_moods: optional (content_id, mood, weight) tags
  - experiments, experiment_variants, experiment_assignments,
    experiment_metrics: A/B testing state

Base tables are created by versioned migrations (migrations.go). The mood
table is created only when configured; its absence makes mood passes fall
back to genre matching. Indexes cover the similarity joins and metric
aggregation and can be skipped for fast test setup.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
)

var catalogTables = []string{
	`CREATE TABLE IF NOT EXISTS content (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		popularity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		runtime_minutes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS content_genres (
		content_id UUID NOT NULL,
		genre TEXT NOT NULL,
		PRIMARY KEY (content_id, genre)
	)`,
	`CREATE TABLE IF NOT EXISTS content_themes (
		content_id UUID NOT NULL,
		theme TEXT NOT NULL,
		PRIMARY KEY (content_id, theme)
	)`,
	`CREATE TABLE IF NOT EXISTS credits (
		content_id UUID NOT NULL,
		person_id UUID NOT NULL,
		role_type TEXT NOT NULL,
		billing_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (content_id, person_id, role_type)
	)`,
	`CREATE TABLE IF NOT EXISTS watch_progress (
		user_id UUID NOT NULL,
		content_id UUID NOT NULL,
		last_watched TIMESTAMP NOT NULL,
		completion_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, content_id)
	)`,
}

var experimentTables = []string{
	`CREATE TABLE IF NOT EXISTS experiments (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		traffic_allocation DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS experiment_variants (
		id UUID PRIMARY KEY,
		experiment_id UUID NOT NULL,
		name TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		config TEXT,
		position INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (experiment_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS experiment_assignments (
		experiment_id UUID NOT NULL,
		user_id UUID NOT NULL,
		variant_id UUID NOT NULL,
		assigned_at TIMESTAMP NOT NULL,
		PRIMARY KEY (experiment_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS experiment_metrics (
		experiment_id UUID NOT NULL,
		variant_id UUID NOT NULL,
		user_id UUID NOT NULL,
		metric_name TEXT NOT NULL,
		metric_value DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`,
}

const moodTable = `CREATE TABLE IF NOT EXISTS content_moods (
	content_id UUID NOT NULL,
	mood TEXT NOT NULL,
	weight DOUBLE PRECISION NOT NULL DEFAULT 1,
	PRIMARY KEY (content_id, mood)
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_content_genres_genre ON content_genres(genre)`,
	`CREATE INDEX IF NOT EXISTS idx_content_themes_theme ON content_themes(theme)`,
	`CREATE INDEX IF NOT EXISTS idx_credits_person ON credits(person_id, role_type)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_progress_content ON watch_progress(content_id)`,
	`CREATE INDEX IF NOT EXISTS idx_watch_progress_last_watched ON watch_progress(last_watched)`,
	`CREATE INDEX IF NOT EXISTS idx_content_popularity ON content(popularity_score)`,
	`CREATE INDEX IF NOT EXISTS idx_experiment_metrics_variant ON experiment_metrics(experiment_id, variant_id)`,
}

// createMoodTable creates the optional mood tag table.
func (db *DB) createMoodTable(ctx context.Context) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, moodTable); err != nil {
		return fmt.Errorf("failed to create content_moods table: %w", err)
	}
	return nil
}

// createIndexes creates secondary indexes.
func (db *DB) createIndexes(ctx context.Context) error {
	ctx, cancel := schemaContext(ctx)
	defer cancel()
	for _, stmt := range indexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
