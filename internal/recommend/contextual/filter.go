// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Filter generates context-biased candidates.
type Filter struct {
	store  Store
	mood   *MoodCapability
	cfg    recommend.ContextConfig
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Filter.
type Option func(*Filter)

// WithClock overrides the clock used to pick the current hour.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

// WithMoodCapability shares a capability cache, typically one refreshed by a
// background service.
func WithMoodCapability(m *MoodCapability) Option {
	return func(f *Filter) { f.mood = m }
}

// NewFilter creates a context filter.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFilter(store Store, cfg recommend.ContextConfig, logger zerolog.Logger, opts ...Option) (*Filter, error) {
	if store == nil {
		return nil, fmt.Errorf("context filter requires a store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context config: %w", err)
	}
	f := &Filter{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", recommend.SourceContext).Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.mood == nil {
		f.mood = NewMoodCapability(store)
	}
	return f, nil
}

// MoodCapability returns the filter's capability cache.
func (f *Filter) MoodCapability() *MoodCapability {
	return f.mood
}

// GenerateCandidates runs one pass per present context field and returns the
// deduplicated union, sorted by descending score and truncated to limit.
func (f *Filter) GenerateCandidates(ctx context.Context, profile recommend.UserProfile, rc recommend.Context, limit int) ([]recommend.ScoredContent, error) {
	start := time.Now()
	out, err := f.generate(ctx, profile, rc, limit)
	metrics.RecordCandidates(recommend.SourceContext, time.Since(start), len(out), err)
	return out, err
}

func (f *Filter) generate(ctx context.Context, profile recommend.UserProfile, rc recommend.Context, limit int) ([]recommend.ScoredContent, error) {
	if limit <= 0 {
		return []recommend.ScoredContent{}, nil
	}

	var passes []func(context.Context) ([]recommend.ScoredContent, error)
	if rc.TimeOfDay != "" {
		passes = append(passes, func(ctx context.Context) ([]recommend.ScoredContent, error) {
			return f.timeOfDayPass(ctx, profile, rc.TimeOfDay)
		})
	}
	if rc.Device != recommend.DeviceUnspecified {
		passes = append(passes, func(ctx context.Context) ([]recommend.ScoredContent, error) {
			return f.devicePass(ctx, rc.Device)
		})
	}
	if rc.Mood != "" {
		passes = append(passes, func(ctx context.Context) ([]recommend.ScoredContent, error) {
			return f.moodPass(ctx, rc.Mood)
		})
	}
	if len(passes) == 0 {
		return []recommend.ScoredContent{}, nil
	}

	results := make([][]recommend.ScoredContent, len(passes))
	g, gctx := errgroup.WithContext(ctx)
	for i, pass := range passes {
		g.Go(func() error {
			items, err := pass(gctx)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var union []recommend.ScoredContent
	for _, items := range results {
		union = append(union, items...)
	}
	return dedupe(union, limit), nil
}

// dedupe sorts descending, keeps the first occurrence of each content ID and
// truncates.
func dedupe(items []recommend.ScoredContent, limit int) []recommend.ScoredContent {
	recommend.SortByScore(items)
	seen := make(map[uuid.UUID]struct{}, len(items))
	out := make([]recommend.ScoredContent, 0, min(len(items), limit))
	for _, it := range items {
		if _, dup := seen[it.ContentID]; dup {
			continue
		}
		seen[it.ContentID] = struct{}{}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (f *Filter) timeOfDayPass(ctx context.Context, profile recommend.UserProfile, label string) ([]recommend.ScoredContent, error) {
	startHour, endHour, ok := TimeRange(label)
	if !ok {
		logging.FromLogger(ctx, f.logger).Debug().Str("time_of_day", label).Msg("unknown time of day label, skipping pass")
		return nil, nil
	}

	candidates, err := f.store.TimeWindowCandidates(ctx, startHour, endHour, f.cfg.MinCompletion, f.cfg.TimeOfDayLimit)
	if err != nil {
		return nil, fmt.Errorf("query time of day candidates (%s): %w", label, err)
	}

	preference := HourlyPreference(profile.TemporalPatterns, f.now().UTC().Hour())
	tag := "time_of_day:" + strings.ToLower(strings.TrimSpace(label))

	out := make([]recommend.ScoredContent, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, recommend.ScoredContent{
			ContentID: c.ContentID,
			Score:     TimeOfDayScore(c.Popularity, preference),
			Source:    recommend.SourceTimeOfDay,
			BasedOn:   []string{tag},
		})
	}
	return out, nil
}

func (f *Filter) devicePass(ctx context.Context, device recommend.DeviceType) ([]recommend.ScoredContent, error) {
	candidates, err := f.store.DeviceCandidates(ctx, deviceQuery(f.cfg, device))
	if err != nil {
		return nil, fmt.Errorf("query device candidates (%s): %w", device, err)
	}

	tag := "device:" + device.String()
	out := make([]recommend.ScoredContent, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, recommend.ScoredContent{
			ContentID: c.ContentID,
			Score:     DeviceScore(device, c.Popularity, c.RuntimeMinutes),
			Source:    recommend.SourceDevice,
			BasedOn:   []string{tag},
		})
	}
	return out, nil
}

// moodPass prefers mood tags and falls back to genre matching when tags are
// unavailable, empty for this mood, or fail to load.
func (f *Filter) moodPass(ctx context.Context, mood string) ([]recommend.ScoredContent, error) {
	mood = normalizeMood(mood)
	log := logging.FromLogger(ctx, f.logger)

	available, err := f.mood.Available(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("mood tag check failed, using genre fallback")
	}
	if available {
		tagged, err := f.store.MoodCandidates(ctx, mood, f.cfg.MoodLimit)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("query mood candidates (%s): %w", mood, err)
			}
			log.Warn().Err(err).Str("mood", mood).Msg("mood tag lookup failed, using genre fallback")
			metrics.RecordMoodFallback("error")
		case len(tagged) > 0:
			return moodTagResults(mood, tagged), nil
		default:
			log.Debug().Str("mood", mood).Msg("no mood tags for mood, using genre fallback")
			metrics.RecordMoodFallback("empty")
		}
	} else {
		metrics.RecordMoodFallback("unavailable")
	}

	return f.genreFallback(ctx, mood)
}

func moodTagResults(mood string, tagged []MoodCandidate) []recommend.ScoredContent {
	tag := "mood:" + mood
	out := make([]recommend.ScoredContent, 0, len(tagged))
	for _, c := range tagged {
		out = append(out, recommend.ScoredContent{
			ContentID: c.ContentID,
			Score:     MoodTagScore(c.Relevance, c.Popularity),
			Source:    recommend.SourceMood,
			BasedOn:   []string{tag},
		})
	}
	return out
}

func (f *Filter) genreFallback(ctx context.Context, mood string) ([]recommend.ScoredContent, error) {
	genres := MoodGenres(f.cfg, mood)
	candidates, err := f.store.GenreCandidates(ctx, genres, f.cfg.MoodLimit)
	if err != nil {
		return nil, fmt.Errorf("query genre candidates for mood %s: %w", mood, err)
	}

	tags := []string{"mood:" + mood, "genres:" + strings.Join(genres, ",")}
	out := make([]recommend.ScoredContent, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, recommend.ScoredContent{
			ContentID: c.ContentID,
			Score:     GenreMatchScore(c.Matched, len(genres), c.Popularity),
			Source:    recommend.SourceMood,
			BasedOn:   tags,
		})
	}
	return out, nil
}
