// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
)

type healthHandler struct {
	store        Pinger
	readyTimeout time.Duration
	startTime    time.Time
}

// healthResponse is the body of both check endpoints.
type healthResponse struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	StoreConnected *bool   `json:"store_connected,omitempty"`
	Error          string  `json:"error,omitempty"`
}

func (h *healthHandler) live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &healthResponse{
		Status:        "alive",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	})
}

func (h *healthHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	resp := &healthResponse{
		Status:        "ready",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK

	connected := h.store != nil
	if connected {
		if err := h.store.Ping(ctx); err != nil {
			connected = false
			resp.Error = err.Error()
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		}
	}
	resp.StoreConnected = &connected
	if !connected {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, resp)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}
