// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/validation"
)

// Service manages experiments and assigns users to variants.
type Service struct {
	repo   Repository
	locker Locker
	cache  AssignmentCache
	logger zerolog.Logger
	now    func() time.Time

	lockTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLocker serializes first assignment per (experiment, user).
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithLockTimeout bounds how long first assignment waits for the locker.
// Zero waits until the caller's context is done.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) { s.lockTimeout = d }
}

// WithAssignmentCache consults c before the repository on assignment.
func WithAssignmentCache(c AssignmentCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an experiment service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(repo Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger.With().Str("component", "experiment").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(verr *validation.RequestValidationError) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, verr.Error())
}

// CreateExperiment creates a draft experiment. Returns ErrConflict when the
// name is taken.
func (s *Service) CreateExperiment(ctx context.Context, in CreateExperimentInput) (*Experiment, error) {
	in.Name = strings.TrimSpace(in.Name)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, invalid(verr)
	}

	now := s.now()
	exp := &Experiment{
		ID:                uuid.New(),
		Name:              in.Name,
		Description:       in.Description,
		Status:            StatusDraft,
		TrafficAllocation: in.TrafficAllocation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateExperiment(ctx, exp); err != nil {
		return nil, fmt.Errorf("create experiment %q: %w", in.Name, err)
	}

	logging.FromLogger(ctx, s.logger).Info().
		Str("experiment_id", exp.ID.String()).
		Str("name", exp.Name).
		Float64("traffic_allocation", exp.TrafficAllocation).
		Msg("experiment created")
	return exp, nil
}

// AddVariant adds a variant to an experiment. Returns ErrConflict when the
// experiment already has a variant with that name.
func (s *Service) AddVariant(ctx context.Context, experimentID uuid.UUID, in AddVariantInput) (*Variant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, invalid(verr)
	}
	if math.IsInf(in.Weight, 0) {
		return nil, fmt.Errorf("%w: weight must be finite", ErrInvalidInput)
	}
	if len(in.Config) > 0 && !json.Valid(in.Config) {
		return nil, fmt.Errorf("%w: config must be valid JSON", ErrInvalidInput)
	}

	v := &Variant{
		ID:           uuid.New(),
		ExperimentID: experimentID,
		Name:         in.Name,
		Weight:       in.Weight,
		Config:       in.Config,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("add variant %q to experiment %s: %w", in.Name, experimentID, err)
	}
	return v, nil
}

// GetExperiment returns an experiment by id.
func (s *Service) GetExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error) {
	exp, err := s.repo.GetExperiment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get experiment %s: %w", id, err)
	}
	return exp, nil
}

// ListVariants returns an experiment's variants in creation order.
func (s *Service) ListVariants(ctx context.Context, experimentID uuid.UUID) ([]Variant, error) {
	if _, err := s.GetExperiment(ctx, experimentID); err != nil {
		return nil, err
	}
	variants, err := s.repo.ListVariants(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list variants of experiment %s: %w", experimentID, err)
	}
	return variants, nil
}

// StartExperiment moves a draft experiment to running. Starting a running
// experiment is a no-op.
func (s *Service) StartExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error) {
	return s.transition(ctx, id, StatusRunning)
}

// PauseExperiment moves a running experiment to paused.
func (s *Service) PauseExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error) {
	return s.transition(ctx, id, StatusPaused)
}

// CompleteExperiment moves a running experiment to completed.
func (s *Service) CompleteExperiment(ctx context.Context, id uuid.UUID) (*Experiment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status) (*Experiment, error) {
	exp, err := s.GetExperiment(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.Status == to && to == StatusRunning {
		return exp, nil
	}
	if !exp.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: experiment %s is %s, cannot become %s", ErrInvalidTransition, id, exp.Status, to)
	}

	at := s.now()
	if err := s.repo.UpdateStatus(ctx, id, exp.Status, to, at); err != nil {
		return nil, fmt.Errorf("set experiment %s status %s: %w", id, to, err)
	}

	logging.FromLogger(ctx, s.logger).Info().
		Str("experiment_id", id.String()).
		Str("from", string(exp.Status)).
		Str("to", string(to)).
		Msg("experiment status changed")

	exp.Status = to
	exp.UpdatedAt = at
	return exp, nil
}

// AssignVariant returns the user's variant, assigning one on first call.
// Repeated calls, including concurrent first calls, return the same variant.
func (s *Service) AssignVariant(ctx context.Context, experimentID, userID uuid.UUID) (*Variant, error) {
	if s.cache != nil {
		if v, ok := s.cache.GetAssignment(ctx, experimentID, userID); ok {
			metrics.RecordAssignment(metrics.AssignmentCached)
			return v, nil
		}
	}

	v, err := s.existingVariant(ctx, experimentID, userID)
	if err != nil {
		return nil, err
	}
	if v != nil {
		metrics.RecordAssignment(metrics.AssignmentExisting)
		s.remember(ctx, experimentID, userID, v)
		return v, nil
	}

	if s.locker != nil {
		lockCtx := ctx
		if s.lockTimeout > 0 {
			var cancel context.CancelFunc
			lockCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
			defer cancel()
		}
		start := time.Now()
		unlock, err := s.locker.Lock(lockCtx, AssignmentLockKey(experimentID, userID))
		metrics.RecordLockWait(s.locker.Name(), time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("lock assignment of user %s in experiment %s: %w", userID, experimentID, err)
		}
		defer unlock()

		// Another holder may have assigned while we waited.
		v, err := s.existingVariant(ctx, experimentID, userID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			metrics.RecordAssignment(metrics.AssignmentExisting)
			s.remember(ctx, experimentID, userID, v)
			return v, nil
		}
	}

	return s.assignFresh(ctx, experimentID, userID)
}

// existingVariant returns the assigned variant, or nil when there is none.
func (s *Service) existingVariant(ctx context.Context, experimentID, userID uuid.UUID) (*Variant, error) {
	a, err := s.repo.GetAssignment(ctx, experimentID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment of user %s in experiment %s: %w", userID, experimentID, err)
	}
	v, err := s.repo.GetVariant(ctx, a.VariantID)
	if err != nil {
		return nil, fmt.Errorf("get assigned variant %s: %w", a.VariantID, err)
	}
	return v, nil
}

func (s *Service) assignFresh(ctx context.Context, experimentID, userID uuid.UUID) (*Variant, error) {
	variants, err := s.repo.ListVariants(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list variants of experiment %s: %w", experimentID, err)
	}
	if len(variants) == 0 {
		if _, err := s.GetExperiment(ctx, experimentID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("assign user %s in experiment %s: %w", userID, experimentID, ErrNoVariants)
	}

	chosen, err := SelectVariant(variants, Bucket(userID))
	if err != nil {
		return nil, err
	}

	inserted, err := s.repo.InsertAssignment(ctx, Assignment{
		ExperimentID: experimentID,
		UserID:       userID,
		VariantID:    chosen.ID,
		AssignedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert assignment of user %s in experiment %s: %w", userID, experimentID, err)
	}

	if inserted {
		metrics.RecordAssignment(metrics.AssignmentCreated)
		s.remember(ctx, experimentID, userID, &chosen)
		return &chosen, nil
	}

	// Lost the race: the stored row wins over our computation.
	a, err := s.repo.GetAssignment(ctx, experimentID, userID)
	if err != nil {
		return nil, fmt.Errorf("re-read assignment of user %s in experiment %s: %w", userID, experimentID, err)
	}
	winner := findVariant(variants, a.VariantID)
	if winner == nil {
		if winner, err = s.repo.GetVariant(ctx, a.VariantID); err != nil {
			return nil, fmt.Errorf("get assigned variant %s: %w", a.VariantID, err)
		}
	}

	metrics.RecordAssignment(metrics.AssignmentRaceLost)
	logging.FromLogger(ctx, s.logger).Debug().
		Str("experiment_id", experimentID.String()).
		Str("user_id", userID.String()).
		Str("variant", winner.Name).
		Msg("assignment race lost, using stored variant")
	s.remember(ctx, experimentID, userID, winner)
	return winner, nil
}

func findVariant(variants []Variant, id uuid.UUID) *Variant {
	for i := range variants {
		if variants[i].ID == id {
			return &variants[i]
		}
	}
	return nil
}

func (s *Service) remember(ctx context.Context, experimentID, userID uuid.UUID, v *Variant) {
	if s.cache != nil {
		s.cache.SetAssignment(ctx, experimentID, userID, v)
	}
}

// RecordExposure appends an exposure row. Repeated exposures are expected.
func (s *Service) RecordExposure(ctx context.Context, experimentID, variantID, userID uuid.UUID) error {
	if experimentID == uuid.Nil || variantID == uuid.Nil || userID == uuid.Nil {
		return fmt.Errorf("%w: experiment, variant and user ids are required", ErrInvalidInput)
	}
	if err := s.append(ctx, experimentID, variantID, userID, MetricExposure, 1.0); err != nil {
		return err
	}
	metrics.RecordMetricWrite(MetricExposure)
	return nil
}

// RecordConversion appends an outcome metric. The exposure name is reserved.
func (s *Service) RecordConversion(ctx context.Context, experimentID, variantID, userID uuid.UUID, name string, value float64) error {
	in := conversionInput{ExperimentID: experimentID, VariantID: variantID, UserID: userID, Name: name}
	if verr := validation.ValidateStruct(in); verr != nil {
		return invalid(verr)
	}
	if name == MetricExposure {
		return fmt.Errorf("record conversion %q: %w", name, ErrReservedMetric)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: metric value must be finite", ErrInvalidInput)
	}
	if err := s.append(ctx, experimentID, variantID, userID, name, value); err != nil {
		return err
	}
	metrics.RecordMetricWrite("outcome")
	return nil
}

func (s *Service) append(ctx context.Context, experimentID, variantID, userID uuid.UUID, name string, value float64) error {
	err := s.repo.AppendMetric(ctx, Metric{
		ExperimentID: experimentID,
		VariantID:    variantID,
		UserID:       userID,
		Name:         name,
		Value:        value,
		RecordedAt:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("record %s for variant %s in experiment %s: %w", name, variantID, experimentID, err)
	}
	return nil
}

// GetExperimentMetrics summarizes every variant. Variants without rows report
// zeros.
func (s *Service) GetExperimentMetrics(ctx context.Context, experimentID uuid.UUID) (*ExperimentMetrics, error) {
	variants, err := s.ListVariants(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.AggregateMetrics(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("aggregate metrics of experiment %s: %w", experimentID, err)
	}

	out := &ExperimentMetrics{
		ExperimentID:   experimentID,
		VariantMetrics: make([]VariantMetrics, 0, len(variants)),
	}
	for _, v := range variants {
		out.VariantMetrics = append(out.VariantMetrics, summarize(v, totals[v.ID]))
	}
	return out, nil
}
