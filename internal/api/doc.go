// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package api provides the Marquee admin HTTP surface.

Only operational endpoints are exposed. Recommendation and experiment
operations are consumed in-process or through the feedback event stream.

Routes:

  - GET /healthz: liveness, always 200 while the process serves
  - GET /readyz: readiness, 503 when the store ping fails
  - GET /metrics: Prometheus exposition

Middleware Stack:

	RequestID -> RealIP -> Recoverer -> PrometheusMetrics -> Timeout

Usage:

	router := api.NewRouter(db, api.RouterConfig{Timeout: 30 * time.Second})
	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
*/
package api
