// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package contextual biases candidates toward content that performs well in a
// situational context.
//
// Each field present in a recommend.Context triggers one independent pass:
//
//   - time of day: content watched past 30% completion inside the label's
//     hour range, scored 0.6*popularity + 0.4*user hourly preference
//   - device: runtime-bounded content (TV >= 30 min, mobile/tablet <= 60 min),
//     scored 0.5*popularity + 0.5*device boost
//   - mood: content tagged with the mood (0.9*relevance + 0.1*popularity);
//     when mood tags are unavailable or empty, genre matching against the
//     mood's genre list (0.5*match ratio + 0.5*popularity)
//
// Passes run concurrently. Their union is sorted descending, deduplicated by
// content ID (highest score wins) and truncated.
//
// Whether the mood tag table is usable is resolved once by MoodCapability and
// cached, instead of probing the store on every request.
package contextual
