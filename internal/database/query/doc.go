// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package query provides SQL building utilities for the database package.
//
// Statements use numbered placeholders ($1, $2, ...) so the same text runs on
// DuckDB and on Postgres through pgx. UUID parameters are bound as strings and
// cast in SQL, which both engines accept:
//
//	args := query.NewArgs()
//	wb := query.NewWhereBuilder(args)
//	wb.AddClause("wp.user_id = " + args.UUID(userID))
//	wb.AddClause("g.genre IN (" + args.List(genres) + ")")
//	where, values := wb.BuildWithPrefix()
//	// WHERE wp.user_id = CAST($1 AS UUID) AND g.genre IN ($2, $3)
//
// Placeholders are numbered in the order they are requested, so build the
// statement text in the same order its arguments should bind.
package query
