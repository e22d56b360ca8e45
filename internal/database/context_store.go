// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/database/query"
	"github.com/tomtom215/marquee/internal/recommend/contextual"
)

var _ contextual.Store = (*DB)(nil)

func scanCandidates(rows *sql.Rows) ([]contextual.Candidate, error) {
	defer closeQuietly(rows)
	var out []contextual.Candidate
	for rows.Next() {
		var (
			c       contextual.Candidate
			runtime sql.NullInt64
		)
		if err := rows.Scan(&c.ContentID, &c.Popularity, &runtime); err != nil {
			return nil, err
		}
		if runtime.Valid {
			v := int(runtime.Int64)
			c.RuntimeMinutes = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TimeWindowCandidates implements contextual.Store. Candidates come from the
// whole population's watch history in the hour window.
func (db *DB) TimeWindowCandidates(ctx context.Context, startHour, endHour int, minCompletion float64, limit int) (out []contextual.Candidate, err error) {
	defer db.observe("time_window_candidates", time.Now(), &err)

	args := query.NewArgs()
	q := `SELECT CAST(c.id AS VARCHAR), c.popularity_score, c.runtime_minutes
		FROM content c
		WHERE c.id IN (
			SELECT content_id FROM watch_progress
			WHERE EXTRACT(HOUR FROM last_watched) >= ` + args.Add(startHour) + `
			  AND EXTRACT(HOUR FROM last_watched) < ` + args.Add(endHour) + `
			  AND completion_rate > ` + args.Add(minCompletion) + `
		)
		ORDER BY c.popularity_score DESC, c.id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query time window [%d, %d): %w", startHour, endHour, err)
	}
	out, err = scanCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("scan time window candidates: %w", err)
	}
	return out, nil
}

// DeviceCandidates implements contextual.Store.
func (db *DB) DeviceCandidates(ctx context.Context, dq contextual.DeviceQuery) (out []contextual.Candidate, err error) {
	defer db.observe("device_candidates", time.Now(), &err)

	args := query.NewArgs()
	wb := query.NewWhereBuilder(args)
	wb.AddIf(dq.MinRuntime > 0, func(a *query.Args) string {
		return "runtime_minutes >= " + a.Add(dq.MinRuntime)
	})
	wb.AddIf(dq.MaxRuntime > 0, func(a *query.Args) string {
		return "runtime_minutes <= " + a.Add(dq.MaxRuntime)
	})
	where, _ := wb.BuildWithPrefix()

	order := "popularity_score DESC, id"
	switch dq.Order {
	case contextual.RuntimeLongestFirst:
		order = "popularity_score DESC, runtime_minutes DESC, id"
	case contextual.RuntimeShortestFirst:
		order = "popularity_score DESC, runtime_minutes ASC, id"
	}

	q := `SELECT CAST(id AS VARCHAR), popularity_score, runtime_minutes FROM content ` +
		where + ` ORDER BY ` + order + ` LIMIT ` + args.Add(dq.Limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query device candidates: %w", err)
	}
	out, err = scanCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("scan device candidates: %w", err)
	}
	return out, nil
}

// MoodCandidates implements contextual.Store.
func (db *DB) MoodCandidates(ctx context.Context, mood string, limit int) (out []contextual.MoodCandidate, err error) {
	defer db.observe("mood_candidates", time.Now(), &err)

	args := query.NewArgs()
	q := `SELECT CAST(c.id AS VARCHAR), c.popularity_score, m.weight
		FROM content_moods m
		JOIN content c ON c.id = m.content_id
		WHERE LOWER(m.mood) = ` + args.Add(strings.ToLower(mood)) + `
		ORDER BY m.weight DESC, c.popularity_score DESC, c.id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query mood candidates: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var c contextual.MoodCandidate
		if err := rows.Scan(&c.ContentID, &c.Popularity, &c.Relevance); err != nil {
			return nil, fmt.Errorf("scan mood candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GenreCandidates implements contextual.Store.
func (db *DB) GenreCandidates(ctx context.Context, genres []string, limit int) (out []contextual.GenreCandidate, err error) {
	defer db.observe("genre_candidates", time.Now(), &err)
	if len(genres) == 0 {
		return nil, nil
	}

	lower := make([]string, len(genres))
	for i, g := range genres {
		lower[i] = strings.ToLower(g)
	}

	args := query.NewArgs()
	q := `SELECT CAST(c.id AS VARCHAR), c.popularity_score, COUNT(DISTINCT LOWER(g.genre)) AS matched
		FROM content c
		JOIN content_genres g ON g.content_id = c.id
		WHERE LOWER(g.genre) IN (` + args.List(lower) + `)
		GROUP BY c.id, c.popularity_score
		ORDER BY matched DESC, c.popularity_score DESC, c.id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query genre candidates: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var c contextual.GenreCandidate
		if err := rows.Scan(&c.ContentID, &c.Popularity, &c.Matched); err != nil {
			return nil, fmt.Errorf("scan genre candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HasMoodTags implements contextual.Store. A missing table reports false
// without error.
func (db *DB) HasMoodTags(ctx context.Context) (ok bool, err error) {
	defer db.observe("has_mood_tags", time.Now(), &err)

	var tables int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'content_moods'`).Scan(&tables)
	if err != nil {
		return false, fmt.Errorf("check mood table: %w", err)
	}
	if tables == 0 {
		return false, nil
	}

	var rows int
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT 1 FROM content_moods LIMIT 1) t`).Scan(&rows); err != nil {
		return false, fmt.Errorf("check mood rows: %w", err)
	}
	return rows > 0, nil
}
