// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/database/query"
	"github.com/tomtom215/marquee/internal/recommend/graph"
)

var _ graph.Store = (*DB)(nil)

// Credit role types.
const (
	RoleActor    = "actor"
	RoleDirector = "director"
)

// SeedHistory implements graph.Store.
func (db *DB) SeedHistory(ctx context.Context, userID uuid.UUID, limit int) (ids []uuid.UUID, err error) {
	defer db.observe("seed_history", time.Now(), &err)

	args := query.NewArgs()
	q := `SELECT CAST(content_id AS VARCHAR) FROM watch_progress
		WHERE user_id = ` + args.UUID(userID) + `
		ORDER BY last_watched DESC, content_id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query seed history: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seed history: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// attributeNeighbors counts shared values of a (content_id, column) relation.
func (db *DB) attributeNeighbors(ctx context.Context, table, column string, seed uuid.UUID, limit int) ([]graph.Neighbor, error) {
	args := query.NewArgs()
	seedParam := args.UUID(seed)
	q := fmt.Sprintf(`WITH seed AS (
			SELECT %[2]s AS value FROM %[1]s WHERE content_id = %[3]s
		)
		SELECT CAST(t.content_id AS VARCHAR), COUNT(*) AS shared, (SELECT COUNT(*) FROM seed) AS total
		FROM %[1]s t
		JOIN seed s ON t.%[2]s = s.value
		WHERE t.content_id <> %[3]s
		GROUP BY t.content_id
		ORDER BY shared DESC, t.content_id
		LIMIT %[4]s`, table, column, seedParam, args.Add(limit))

	return db.queryNeighbors(ctx, q, args.Values())
}

func (db *DB) queryNeighbors(ctx context.Context, q string, args []interface{}) ([]graph.Neighbor, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	var out []graph.Neighbor
	for rows.Next() {
		var n graph.Neighbor
		if err := rows.Scan(&n.ContentID, &n.Shared, &n.SeedTotal); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GenreNeighbors implements graph.Store.
func (db *DB) GenreNeighbors(ctx context.Context, seed uuid.UUID, limit int) (out []graph.Neighbor, err error) {
	defer db.observe("genre_neighbors", time.Now(), &err)
	out, err = db.attributeNeighbors(ctx, "content_genres", "genre", seed, limit)
	if err != nil {
		return nil, fmt.Errorf("query genre neighbors: %w", err)
	}
	return out, nil
}

// ThemeNeighbors implements graph.Store.
func (db *DB) ThemeNeighbors(ctx context.Context, seed uuid.UUID, limit int) (out []graph.Neighbor, err error) {
	defer db.observe("theme_neighbors", time.Now(), &err)
	out, err = db.attributeNeighbors(ctx, "content_themes", "theme", seed, limit)
	if err != nil {
		return nil, fmt.Errorf("query theme neighbors: %w", err)
	}
	return out, nil
}

// CastNeighbors implements graph.Store. Only the seed's castCap top-billed
// actors are compared.
func (db *DB) CastNeighbors(ctx context.Context, seed uuid.UUID, castCap, limit int) (out []graph.Neighbor, err error) {
	defer db.observe("cast_neighbors", time.Now(), &err)

	args := query.NewArgs()
	seedParam := args.UUID(seed)
	role := args.Add(RoleActor)
	q := `WITH seed AS (
			SELECT person_id FROM credits
			WHERE content_id = ` + seedParam + ` AND role_type = ` + role + `
			ORDER BY billing_order, person_id
			LIMIT ` + args.Add(castCap) + `
		)
		SELECT CAST(c.content_id AS VARCHAR), COUNT(DISTINCT c.person_id) AS shared, (SELECT COUNT(*) FROM seed) AS total
		FROM credits c
		JOIN seed s ON c.person_id = s.person_id
		WHERE c.role_type = ` + role + ` AND c.content_id <> ` + seedParam + `
		GROUP BY c.content_id
		ORDER BY shared DESC, c.content_id
		LIMIT ` + args.Add(limit)

	out, err = db.queryNeighbors(ctx, q, args.Values())
	if err != nil {
		return nil, fmt.Errorf("query cast neighbors: %w", err)
	}
	return out, nil
}

// DirectorNeighbors implements graph.Store.
func (db *DB) DirectorNeighbors(ctx context.Context, seed uuid.UUID, limit int) (ids []uuid.UUID, err error) {
	defer db.observe("director_neighbors", time.Now(), &err)

	args := query.NewArgs()
	seedParam := args.UUID(seed)
	role := args.Add(RoleDirector)
	q := `SELECT CAST(c.content_id AS VARCHAR)
		FROM credits c
		JOIN credits d ON c.person_id = d.person_id
		WHERE d.content_id = ` + seedParam + ` AND d.role_type = ` + role + `
		  AND c.role_type = ` + role + ` AND c.content_id <> ` + seedParam + `
		GROUP BY c.content_id
		ORDER BY c.content_id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query director neighbors: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan director neighbor: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SimilarUsers implements graph.Store.
func (db *DB) SimilarUsers(ctx context.Context, userID uuid.UUID, seeds []uuid.UUID, minOverlap, limit int) (out []graph.SimilarUser, err error) {
	defer db.observe("similar_users", time.Now(), &err)
	if len(seeds) == 0 {
		return nil, nil
	}

	args := query.NewArgs()
	q := `SELECT CAST(user_id AS VARCHAR), COUNT(*) AS overlap
		FROM watch_progress
		WHERE content_id IN (` + args.UUIDList(seeds) + `)
		  AND user_id <> ` + args.UUID(userID) + `
		GROUP BY user_id
		HAVING COUNT(*) >= ` + args.Add(minOverlap) + `
		ORDER BY overlap DESC, user_id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query similar users: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var u graph.SimilarUser
		if err := rows.Scan(&u.UserID, &u.Overlap); err != nil {
			return nil, fmt.Errorf("scan similar user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// HighlyRated implements graph.Store.
func (db *DB) HighlyRated(ctx context.Context, userID uuid.UUID, minCompletion float64, limit int) (out []graph.RatedItem, err error) {
	defer db.observe("highly_rated", time.Now(), &err)

	args := query.NewArgs()
	q := `SELECT CAST(content_id AS VARCHAR), completion_rate
		FROM watch_progress
		WHERE user_id = ` + args.UUID(userID) + ` AND completion_rate >= ` + args.Add(minCompletion) + `
		ORDER BY completion_rate DESC, last_watched DESC, content_id
		LIMIT ` + args.Add(limit)

	rows, err := db.conn.QueryContext(ctx, q, args.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query highly rated items: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var it graph.RatedItem
		if err := rows.Scan(&it.ContentID, &it.Completion); err != nil {
			return nil, fmt.Errorf("scan highly rated item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
