// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package logging provides the zerolog-based structured logging layer for Marquee.
//
// A single global logger is configured at startup with Init and read with
// Logger. Long-lived components do not reach for the global logger on every
// call; they receive a zerolog.Logger at construction, tagged with the
// component name:
//
//	logger := logging.WithComponent("graph")
//	rec := graph.NewRecommender(store, cfg, logger)
//
// Request-scoped code uses Ctx to pick up correlation and request ids that
// were attached to the context upstream:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Str("experiment_id", id.String()).Msg("variant assigned")
//
// Libraries that only speak log/slog (suture's sutureslog handler, the
// Watermill slog adapter) are bridged through SlogHandler so every line ends
// up in the same zerolog stream.
//
// Configuration comes from the logging section of the service config:
//
//   - level: trace, debug, info, warn, error (default: info)
//   - format: json, console (default: json)
//   - caller: include caller file:line (default: false)
package logging
