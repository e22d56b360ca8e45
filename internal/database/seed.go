// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/database/query"
)

// CatalogItem is a content row with its relations.
type CatalogItem struct {
	ID             uuid.UUID
	Title          string
	Popularity     float64
	RuntimeMinutes *int
	Genres         []string
	Themes         []string
	Actors         []uuid.UUID // in billing order
	Directors      []uuid.UUID
}

// WatchRecord is one row of watch progress.
type WatchRecord struct {
	UserID      uuid.UUID
	ContentID   uuid.UUID
	LastWatched time.Time
	Completion  float64
}

// InsertCatalogItem writes a content row and its relations in one
// transaction. Catalog ingestion normally owns these tables; this writer
// serves fixtures and tests.
func (db *DB) InsertCatalogItem(ctx context.Context, item CatalogItem) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollbackQuietly(tx)
		}
	}()

	exec := func(build func(a *query.Args) string) error {
		args := query.NewArgs()
		_, err := tx.ExecContext(ctx, build(args), args.Values()...)
		return err
	}

	var runtime interface{}
	if item.RuntimeMinutes != nil {
		runtime = *item.RuntimeMinutes
	}
	err = exec(func(a *query.Args) string {
		return `INSERT INTO content (id, title, popularity_score, runtime_minutes) VALUES (` +
			a.UUID(item.ID) + `, ` + a.Add(item.Title) + `, ` + a.Add(item.Popularity) + `, ` + a.Add(runtime) + `)`
	})
	if err != nil {
		return fmt.Errorf("insert content %s: %w", item.ID, err)
	}

	for _, g := range item.Genres {
		err = exec(func(a *query.Args) string {
			return `INSERT INTO content_genres (content_id, genre) VALUES (` + a.UUID(item.ID) + `, ` + a.Add(strings.ToLower(g)) + `)`
		})
		if err != nil {
			return fmt.Errorf("insert genre %q for %s: %w", g, item.ID, err)
		}
	}
	for _, th := range item.Themes {
		err = exec(func(a *query.Args) string {
			return `INSERT INTO content_themes (content_id, theme) VALUES (` + a.UUID(item.ID) + `, ` + a.Add(th) + `)`
		})
		if err != nil {
			return fmt.Errorf("insert theme %q for %s: %w", th, item.ID, err)
		}
	}
	credit := func(person uuid.UUID, role string, order int) error {
		return exec(func(a *query.Args) string {
			return `INSERT INTO credits (content_id, person_id, role_type, billing_order) VALUES (` +
				a.UUID(item.ID) + `, ` + a.UUID(person) + `, ` + a.Add(role) + `, ` + a.Add(order) + `)`
		})
	}
	for i, p := range item.Actors {
		if err = credit(p, RoleActor, i); err != nil {
			return fmt.Errorf("insert actor credit for %s: %w", item.ID, err)
		}
	}
	for i, p := range item.Directors {
		if err = credit(p, RoleDirector, i); err != nil {
			return fmt.Errorf("insert director credit for %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// RecordWatch upserts watch progress for (user, content).
func (db *DB) RecordWatch(ctx context.Context, w WatchRecord) error {
	args := query.NewArgs()
	q := `INSERT INTO watch_progress (user_id, content_id, last_watched, completion_rate)
		VALUES (` + args.UUID(w.UserID) + `, ` + args.UUID(w.ContentID) + `, ` + args.Add(w.LastWatched.UTC()) + `, ` + args.Add(w.Completion) + `)
		ON CONFLICT (user_id, content_id) DO UPDATE SET
			last_watched = EXCLUDED.last_watched,
			completion_rate = EXCLUDED.completion_rate`
	if _, err := db.conn.ExecContext(ctx, q, args.Values()...); err != nil {
		return fmt.Errorf("record watch of %s by %s: %w", w.ContentID, w.UserID, err)
	}
	return nil
}

// TagMood writes a mood tag. The mood table must exist.
func (db *DB) TagMood(ctx context.Context, contentID uuid.UUID, mood string, weight float64) error {
	args := query.NewArgs()
	q := `INSERT INTO content_moods (content_id, mood, weight) VALUES (` +
		args.UUID(contentID) + `, ` + args.Add(strings.ToLower(mood)) + `, ` + args.Add(weight) + `)`
	if _, err := db.conn.ExecContext(ctx, q, args.Values()...); err != nil {
		return fmt.Errorf("tag %s with mood %q: %w", contentID, mood, err)
	}
	return nil
}
