// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"math"
)

// WeightEpsilon is the tolerance for weight sum checks.
const WeightEpsilon = 1e-9

// ContentWeights are the per-factor weights of content-content similarity.
type ContentWeights struct {
	Genre    float64 `json:"genre"`
	Cast     float64 `json:"cast"`
	Director float64 `json:"director"`
	Theme    float64 `json:"theme"`
}

// Sum returns the total of all four weights.
func (w ContentWeights) Sum() float64 {
	return w.Genre + w.Cast + w.Director + w.Theme
}

// Validate checks that each weight is in [0, 1] and that they sum to 1.0.
func (w ContentWeights) Validate() error {
	for _, v := range []float64{w.Genre, w.Cast, w.Director, w.Theme} {
		if v < 0 || v > 1 {
			return fmt.Errorf("content weight %v out of range [0, 1]", v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightEpsilon {
		return fmt.Errorf("content weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// GraphConfig tunes the graph recommender.
type GraphConfig struct {
	Weights ContentWeights `json:"weights"`

	// ContentWeight and CollaborativeWeight fuse the two signals.
	ContentWeight       float64 `json:"content_weight"`
	CollaborativeWeight float64 `json:"collaborative_weight"`

	// CollaborativeDecay damps each neighbour contribution. Must be in (0, 1).
	CollaborativeDecay float64 `json:"collaborative_decay"`

	MaxSeeds       int `json:"max_seeds"`
	MaxCastPerSeed int `json:"max_cast_per_seed"`

	// Per-factor candidate bounds per seed.
	GenreLimit    int `json:"genre_limit"`
	CastLimit     int `json:"cast_limit"`
	DirectorLimit int `json:"director_limit"`
	ThemeLimit    int `json:"theme_limit"`

	SimilarUsers     int     `json:"similar_users"`
	MinOverlap       int     `json:"min_overlap"`
	ItemsPerNeighbor int     `json:"items_per_neighbor"`
	HighCompletion   float64 `json:"high_completion"`

	// MaxConcurrency bounds in-flight store queries per request. 0 means unbounded.
	MaxConcurrency int `json:"max_concurrency"`
}

// DefaultGraphConfig returns the production defaults.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Weights: ContentWeights{
			Genre:    0.35,
			Cast:     0.25,
			Director: 0.20,
			Theme:    0.20,
		},
		ContentWeight:       0.6,
		CollaborativeWeight: 0.4,
		CollaborativeDecay:  0.5,
		MaxSeeds:            50,
		MaxCastPerSeed:      10,
		GenreLimit:          30,
		CastLimit:           20,
		DirectorLimit:       15,
		ThemeLimit:          20,
		SimilarUsers:        20,
		MinOverlap:          3,
		ItemsPerNeighbor:    30,
		HighCompletion:      0.7,
		MaxConcurrency:      8,
	}
}

// Validate checks weights and bounds.
func (c GraphConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.ContentWeight < 0 || c.ContentWeight > 1 || c.CollaborativeWeight < 0 || c.CollaborativeWeight > 1 {
		return fmt.Errorf("fusion weights must be in [0, 1], got %v/%v", c.ContentWeight, c.CollaborativeWeight)
	}
	if c.CollaborativeDecay <= 0 || c.CollaborativeDecay >= 1 {
		return fmt.Errorf("collaborative decay must be in (0, 1), got %v", c.CollaborativeDecay)
	}
	if c.MaxSeeds <= 0 || c.MaxCastPerSeed <= 0 {
		return fmt.Errorf("seed bounds must be positive")
	}
	if c.GenreLimit <= 0 || c.CastLimit <= 0 || c.DirectorLimit <= 0 || c.ThemeLimit <= 0 {
		return fmt.Errorf("per-factor limits must be positive")
	}
	if c.SimilarUsers <= 0 || c.MinOverlap <= 0 || c.ItemsPerNeighbor <= 0 {
		return fmt.Errorf("collaborative bounds must be positive")
	}
	if c.HighCompletion < 0 || c.HighCompletion > 1 {
		return fmt.Errorf("high completion threshold must be in [0, 1], got %v", c.HighCompletion)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency must be non-negative")
	}
	return nil
}

// ContextConfig tunes the context-aware filter.
type ContextConfig struct {
	TimeOfDayLimit int `json:"time_of_day_limit"`
	DeviceLimit    int `json:"device_limit"`
	MoodLimit      int `json:"mood_limit"`

	// MinCompletion is the exclusive completion floor for time-of-day history.
	MinCompletion float64 `json:"min_completion"`

	// TVMinRuntime and MobileMaxRuntime bound device passes, in minutes.
	TVMinRuntime     int `json:"tv_min_runtime"`
	MobileMaxRuntime int `json:"mobile_max_runtime"`

	// MoodGenres maps a lowercase mood to candidate genres.
	MoodGenres map[string][]string `json:"mood_genres"`

	// DefaultMoodGenres is used for unmapped moods.
	DefaultMoodGenres []string `json:"default_mood_genres"`
}

// DefaultContextConfig returns the production defaults.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		TimeOfDayLimit:   50,
		DeviceLimit:      50,
		MoodLimit:        50,
		MinCompletion:    0.3,
		TVMinRuntime:     30,
		MobileMaxRuntime: 60,
		MoodGenres: map[string][]string{
			"happy":       {"comedy", "family", "animation"},
			"sad":         {"drama", "romance"},
			"excited":     {"action", "adventure", "thriller"},
			"relaxed":     {"documentary", "comedy", "family"},
			"romantic":    {"romance", "drama"},
			"scared":      {"horror", "thriller"},
			"thoughtful":  {"documentary", "drama", "history"},
			"adventurous": {"adventure", "fantasy", "science fiction"},
			"nostalgic":   {"family", "animation", "music"},
		},
		DefaultMoodGenres: []string{"drama", "comedy"},
	}
}

// Validate checks bounds.
func (c ContextConfig) Validate() error {
	if c.TimeOfDayLimit <= 0 || c.DeviceLimit <= 0 || c.MoodLimit <= 0 {
		return fmt.Errorf("context limits must be positive")
	}
	if c.MinCompletion < 0 || c.MinCompletion >= 1 {
		return fmt.Errorf("min completion must be in [0, 1), got %v", c.MinCompletion)
	}
	if c.TVMinRuntime <= 0 || c.MobileMaxRuntime <= 0 {
		return fmt.Errorf("runtime bounds must be positive")
	}
	if len(c.DefaultMoodGenres) == 0 {
		return fmt.Errorf("default mood genres must not be empty")
	}
	return nil
}
