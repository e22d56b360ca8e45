// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/middleware"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig configures the admin router.
type RouterConfig struct {
	// Timeout bounds each request. Zero disables the timeout middleware.
	Timeout time.Duration

	// ReadyTimeout bounds the readiness ping. Defaults to 2s.
	ReadyTimeout time.Duration
}

// NewRouter builds the admin chi router.
func NewRouter(store Pinger, cfg RouterConfig) http.Handler {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}

	h := &healthHandler{
		store:        store,
		readyTimeout: cfg.ReadyTimeout,
		startTime:    time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	if cfg.Timeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Timeout))
	}

	r.Get("/healthz", h.live)
	r.Get("/readyz", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
