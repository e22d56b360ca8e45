// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package graph

import (
	"context"

	"github.com/google/uuid"
)

// Neighbor is a content item sharing attribute values with a seed.
type Neighbor struct {
	ContentID uuid.UUID

	// Shared is the number of attribute values shared with the seed.
	Shared int

	// SeedTotal is the number of attribute values the seed has for this factor.
	SeedTotal int
}

// Similarity returns Shared/SeedTotal, or 0 when the seed has no values.
func (n Neighbor) Similarity() float64 {
	if n.SeedTotal <= 0 {
		return 0
	}
	return float64(n.Shared) / float64(n.SeedTotal)
}

// SimilarUser is another user whose history overlaps the seed set.
type SimilarUser struct {
	UserID  uuid.UUID
	Overlap int
}

// RatedItem is an item a neighbour watched with high completion.
type RatedItem struct {
	ContentID  uuid.UUID
	Completion float64
}

// Store is the read side the graph recommender needs. Every method must honor
// ctx cancellation.
type Store interface {
	// SeedHistory returns up to limit distinct content IDs the user watched,
	// most recent first.
	SeedHistory(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)

	// GenreNeighbors returns content sharing genres with seed, most shared first.
	GenreNeighbors(ctx context.Context, seed uuid.UUID, limit int) ([]Neighbor, error)

	// CastNeighbors returns content sharing actors with the seed's first
	// castCap credited actors, most shared first.
	CastNeighbors(ctx context.Context, seed uuid.UUID, castCap, limit int) ([]Neighbor, error)

	// DirectorNeighbors returns content sharing any director credit with seed.
	DirectorNeighbors(ctx context.Context, seed uuid.UUID, limit int) ([]uuid.UUID, error)

	// ThemeNeighbors returns content sharing themes with seed, most shared first.
	ThemeNeighbors(ctx context.Context, seed uuid.UUID, limit int) ([]Neighbor, error)

	// SimilarUsers returns up to limit other users that watched at least
	// minOverlap of the seeds, highest overlap first.
	SimilarUsers(ctx context.Context, userID uuid.UUID, seeds []uuid.UUID, minOverlap, limit int) ([]SimilarUser, error)

	// HighlyRated returns up to limit items the user watched with completion
	// at or above minCompletion, ordered by completion then recency.
	HighlyRated(ctx context.Context, userID uuid.UUID, minCompletion float64, limit int) ([]RatedItem, error)
}
