// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package testinfra provides container-backed infrastructure for integration
// tests. Every file is behind the integration build tag.
//
// # Postgres
//
//	func TestRepository_Postgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg.Container)
//
//	    db, err := database.New(ctx, &config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
//	    ...
//	}
//
// # Redis and NATS
//
// NewRedisContainer returns an Addr for go-redis; NewNATSContainer returns a
// URL for nats.go and Watermill's NATS transport.
//
// Run with:
//
//	go test -tags integration ./...
package testinfra
