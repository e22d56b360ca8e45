// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package graph generates candidates by walking content and user graphs.
//
// For a user, the recommender loads up to 50 recently watched items (the seed
// set) and, per seed, queries four content relations concurrently:
//
//	factor    weight  limit  similarity
//	genre     0.35    30     shared genres / seed genres
//	cast      0.25    20     shared actors / seed actors (top 10 billed)
//	director  0.20    15     1.0 on any shared director
//	theme     0.20    20     shared themes / seed themes
//
// Weighted similarities are summed across seeds and divided by the seed count,
// so heavy watchers are not favored over light ones.
//
// In parallel, a collaborative pass finds up to 20 users who watched at least
// three seeds (similarity = overlap / seeds) and adds
// similarity * completion * decay for each of their highly rated items.
//
// The fused score is 0.6*content + 0.4*collaborative. Seeds are removed, the
// rest is sorted descending and truncated. An empty seed set yields an empty
// result; any store error fails the whole request and cancels in-flight queries.
package graph
