// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CapabilityRefresher re-checks an optional storage capability.
// Satisfied by *contextual.MoodCapability.
type CapabilityRefresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// CapabilityRefreshService periodically refreshes a capability cache so a
// table created after startup is picked up without a restart.
type CapabilityRefreshService struct {
	refresher CapabilityRefresher
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	name      string
}

// NewCapabilityRefreshService creates the service. A non-positive interval
// defaults to 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCapabilityRefreshService(refresher CapabilityRefresher, interval time.Duration, logger zerolog.Logger) *CapabilityRefreshService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CapabilityRefreshService{
		refresher: refresher,
		interval:  interval,
		timeout:   10 * time.Second,
		logger:    logger.With().Str("service", "capability-refresh").Logger(),
		name:      "mood-capability-refresh",
	}
}

// Serve implements suture.Service. It checks once at startup, then on every
// tick. Check failures never stop the service.
func (s *CapabilityRefreshService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("capability refresh service starting")

	last, known := s.refresh(ctx, false, false)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			last, known = s.refresh(ctx, last, known)
		}
	}
}

func (s *CapabilityRefreshService) refresh(ctx context.Context, last, known bool) (bool, bool) {
	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.refresher.Refresh(checkCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("capability check failed")
		return last, known
	}
	if !known || ok != last {
		s.logger.Info().Bool("available", ok).Msg("mood tag capability resolved")
	}
	return ok, true
}

// String implements fmt.Stringer for suture logs.
func (s *CapabilityRefreshService) String() string {
	return s.name
}
