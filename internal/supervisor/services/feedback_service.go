// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// FeedbackRunner is a long-running event consumer.
// Satisfied by *feedback.Consumer.
type FeedbackRunner interface {
	Run(ctx context.Context) error
	Close() error
}

// FeedbackService supervises the feedback consumer router. A Watermill router
// cannot be run twice, so every Serve builds a fresh runner.
type FeedbackService struct {
	newRunner func() (FeedbackRunner, error)
	logger    zerolog.Logger
	name      string
}

// NewFeedbackService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFeedbackService(newRunner func() (FeedbackRunner, error), logger zerolog.Logger) *FeedbackService {
	return &FeedbackService{
		newRunner: newRunner,
		logger:    logger.With().Str("service", "feedback").Logger(),
		name:      "feedback-consumer",
	}
}

// Serve implements suture.Service. A router that stops while ctx is still
// live is reported as an error so suture restarts it.
func (s *FeedbackService) Serve(ctx context.Context) error {
	runner, err := s.newRunner()
	if err != nil {
		return fmt.Errorf("build feedback consumer: %w", err)
	}
	s.logger.Info().Msg("feedback consumer starting")

	err = runner.Run(ctx)
	if ctx.Err() != nil {
		if cerr := runner.Close(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("feedback consumer close failed")
		}
		return ctx.Err()
	}
	_ = runner.Close()
	if err == nil {
		err = errors.New("router stopped unexpectedly")
	}
	return fmt.Errorf("feedback consumer: %w", err)
}

// String implements fmt.Stringer for suture logs.
func (s *FeedbackService) String() string {
	return s.name
}
