// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package recommend holds the types and tuning shared by the candidate
// generators.
//
// Two generators live in subpackages:
//
//   - graph: content-content similarity (genre, cast, director, theme) fused
//     with a user-user collaborative signal built from watch history overlap
//   - contextual: time-of-day, device and mood passes over the catalog
//
// Both return []ScoredContent sorted by descending score. They do not call
// each other; an external orchestrator merges their output and decides which
// strategy a user sees based on the experiment package.
//
// # Score Fusion
//
// Graph candidates are scored as
//
//	content = mean over seeds of (0.35*genre + 0.25*cast + 0.20*director + 0.20*theme)
//	final   = 0.6*content + 0.4*collaborative
//
// The content weights must sum to 1.0 (ContentWeights.Validate). The 60/40
// split is tunable through GraphConfig but should not change while an
// experiment comparing strategies is running.
package recommend
