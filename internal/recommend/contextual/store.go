// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"context"

	"github.com/google/uuid"
)

// RuntimeOrder is the secondary sort of a device query.
type RuntimeOrder int

const (
	// RuntimeUnordered sorts by popularity only.
	RuntimeUnordered RuntimeOrder = iota
	// RuntimeLongestFirst breaks popularity ties by longer runtime.
	RuntimeLongestFirst
	// RuntimeShortestFirst breaks popularity ties by shorter runtime.
	RuntimeShortestFirst
)

// Candidate is a catalog row returned by a context query.
type Candidate struct {
	ContentID      uuid.UUID
	Popularity     float64
	RuntimeMinutes *int
}

// DeviceQuery bounds a device pass. Zero bounds are open.
type DeviceQuery struct {
	MinRuntime int
	MaxRuntime int
	Order      RuntimeOrder
	Limit      int
}

// MoodCandidate is content tagged with a mood.
type MoodCandidate struct {
	ContentID  uuid.UUID
	Popularity float64
	Relevance  float64
}

// GenreCandidate is content matching at least one requested genre.
type GenreCandidate struct {
	ContentID  uuid.UUID
	Popularity float64
	Matched    int
}

// Store is the read side the context filter needs. Every method must honor
// ctx cancellation.
type Store interface {
	// TimeWindowCandidates returns content watched with completion above
	// minCompletion at an hour in [startHour, endHour), most popular first.
	TimeWindowCandidates(ctx context.Context, startHour, endHour int, minCompletion float64, limit int) ([]Candidate, error)

	// DeviceCandidates returns runtime-bounded content, most popular first.
	DeviceCandidates(ctx context.Context, q DeviceQuery) ([]Candidate, error)

	// MoodCandidates returns content tagged with mood, most relevant first.
	MoodCandidates(ctx context.Context, mood string, limit int) ([]MoodCandidate, error)

	// GenreCandidates returns content in any of genres, most matches first.
	GenreCandidates(ctx context.Context, genres []string, limit int) ([]GenreCandidate, error)

	// HasMoodTags reports whether the mood tag table exists and has rows.
	HasMoodTags(ctx context.Context) (bool, error)
}
