// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package middleware provides HTTP middleware for the Marquee admin server.

Key Components:

  - RequestID: request ID propagation into the logging context
  - PrometheusMetrics: request duration instrumentation keyed by route pattern

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

See Also:

  - internal/api: admin router
  - internal/metrics: metric definitions
*/
package middleware
