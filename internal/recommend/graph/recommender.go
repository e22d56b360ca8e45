// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// factor is a bit in a candidate's provenance mask.
type factor uint8

const (
	factorGenre factor = 1 << iota
	factorCast
	factorDirector
	factorTheme
	factorCollaborative
)

var factorNames = []struct {
	f    factor
	name string
}{
	{factorGenre, "genre"},
	{factorCast, "cast"},
	{factorDirector, "director"},
	{factorTheme, "theme"},
	{factorCollaborative, "collaborative"},
}

// Recommender produces graph-based candidates.
type Recommender struct {
	store  Store
	cfg    recommend.GraphConfig
	logger zerolog.Logger
}

// NewRecommender creates a recommender. The config is validated so a weight
// drift fails at startup rather than silently rescaling scores.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRecommender(store Store, cfg recommend.GraphConfig, logger zerolog.Logger) (*Recommender, error) {
	if store == nil {
		return nil, fmt.Errorf("graph recommender requires a store")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph config: %w", err)
	}
	return &Recommender{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "graph").Logger(),
	}, nil
}

// Recommend returns up to limit candidates for userID, sorted by descending
// score, never including content from the user's seed history.
func (r *Recommender) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]recommend.ScoredContent, error) {
	start := time.Now()
	out, err := r.recommend(ctx, userID, limit)
	metrics.RecordCandidates(recommend.SourceGraph, time.Since(start), len(out), err)
	return out, err
}

func (r *Recommender) recommend(ctx context.Context, userID uuid.UUID, limit int) ([]recommend.ScoredContent, error) {
	if limit <= 0 {
		return []recommend.ScoredContent{}, nil
	}

	log := logging.FromLogger(ctx, r.logger)

	seeds, err := r.store.SeedHistory(ctx, userID, r.cfg.MaxSeeds)
	if err != nil {
		return nil, fmt.Errorf("load seed history for user %s: %w", userID, err)
	}
	if len(seeds) == 0 {
		log.Debug().Str("user_id", userID.String()).Msg("no watch history, skipping graph candidates")
		return []recommend.ScoredContent{}, nil
	}

	acc := newAccumulator()

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.MaxConcurrency > 0 {
		g.SetLimit(r.cfg.MaxConcurrency)
	}
	for _, seed := range seeds {
		g.Go(func() error { return r.genreFactor(gctx, seed, acc) })
		g.Go(func() error { return r.castFactor(gctx, seed, acc) })
		g.Go(func() error { return r.directorFactor(gctx, seed, acc) })
		g.Go(func() error { return r.themeFactor(gctx, seed, acc) })
	}
	g.Go(func() error { return r.collaborative(gctx, userID, seeds, acc) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := acc.fuse(seeds, r.cfg.ContentWeight, r.cfg.CollaborativeWeight)
	recommend.SortByScore(out)
	out = recommend.Truncate(out, limit)

	log.Debug().
		Str("user_id", userID.String()).
		Int("seeds", len(seeds)).
		Int("candidates", len(out)).
		Msg("graph candidates generated")

	return out, nil
}

func (r *Recommender) genreFactor(ctx context.Context, seed uuid.UUID, acc *accumulator) error {
	neighbors, err := r.store.GenreNeighbors(ctx, seed, r.cfg.GenreLimit)
	if err != nil {
		return fmt.Errorf("query genre neighbors of %s: %w", seed, err)
	}
	for _, n := range neighbors {
		acc.addContent(n.ContentID, r.cfg.Weights.Genre*n.Similarity(), factorGenre)
	}
	return nil
}

func (r *Recommender) castFactor(ctx context.Context, seed uuid.UUID, acc *accumulator) error {
	neighbors, err := r.store.CastNeighbors(ctx, seed, r.cfg.MaxCastPerSeed, r.cfg.CastLimit)
	if err != nil {
		return fmt.Errorf("query cast neighbors of %s: %w", seed, err)
	}
	for _, n := range neighbors {
		acc.addContent(n.ContentID, r.cfg.Weights.Cast*n.Similarity(), factorCast)
	}
	return nil
}

func (r *Recommender) directorFactor(ctx context.Context, seed uuid.UUID, acc *accumulator) error {
	ids, err := r.store.DirectorNeighbors(ctx, seed, r.cfg.DirectorLimit)
	if err != nil {
		return fmt.Errorf("query director neighbors of %s: %w", seed, err)
	}
	for _, id := range ids {
		acc.addContent(id, r.cfg.Weights.Director, factorDirector)
	}
	return nil
}

func (r *Recommender) themeFactor(ctx context.Context, seed uuid.UUID, acc *accumulator) error {
	neighbors, err := r.store.ThemeNeighbors(ctx, seed, r.cfg.ThemeLimit)
	if err != nil {
		return fmt.Errorf("query theme neighbors of %s: %w", seed, err)
	}
	for _, n := range neighbors {
		acc.addContent(n.ContentID, r.cfg.Weights.Theme*n.Similarity(), factorTheme)
	}
	return nil
}

// collaborative adds similarity*completion*decay for every highly rated item
// of every similar user.
func (r *Recommender) collaborative(ctx context.Context, userID uuid.UUID, seeds []uuid.UUID, acc *accumulator) error {
	users, err := r.store.SimilarUsers(ctx, userID, seeds, r.cfg.MinOverlap, r.cfg.SimilarUsers)
	if err != nil {
		return fmt.Errorf("query similar users of %s: %w", userID, err)
	}
	if len(users) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.MaxConcurrency > 0 {
		g.SetLimit(r.cfg.MaxConcurrency)
	}
	for _, u := range users {
		similarity := float64(u.Overlap) / float64(len(seeds))
		g.Go(func() error {
			items, err := r.store.HighlyRated(gctx, u.UserID, r.cfg.HighCompletion, r.cfg.ItemsPerNeighbor)
			if err != nil {
				return fmt.Errorf("query highly rated items of %s: %w", u.UserID, err)
			}
			for _, item := range items {
				acc.addCollaborative(item.ContentID, similarity*item.Completion*r.cfg.CollaborativeDecay)
			}
			return nil
		})
	}
	return g.Wait()
}

// accumulator merges additive scores from concurrent queries.
type accumulator struct {
	mu            sync.Mutex
	content       map[uuid.UUID]float64
	collaborative map[uuid.UUID]float64
	provenance    map[uuid.UUID]factor
}

func newAccumulator() *accumulator {
	return &accumulator{
		content:       make(map[uuid.UUID]float64),
		collaborative: make(map[uuid.UUID]float64),
		provenance:    make(map[uuid.UUID]factor),
	}
}

func (a *accumulator) addContent(id uuid.UUID, score float64, f factor) {
	a.mu.Lock()
	a.content[id] += score
	a.provenance[id] |= f
	a.mu.Unlock()
}

func (a *accumulator) addCollaborative(id uuid.UUID, score float64) {
	a.mu.Lock()
	a.collaborative[id] += score
	a.provenance[id] |= factorCollaborative
	a.mu.Unlock()
}

// fuse averages content scores over the seed count, blends in the
// collaborative score and drops seeds. Callers must have waited for all writers.
func (a *accumulator) fuse(seeds []uuid.UUID, contentWeight, collaborativeWeight float64) []recommend.ScoredContent {
	seedSet := make(map[uuid.UUID]struct{}, len(seeds))
	for _, s := range seeds {
		seedSet[s] = struct{}{}
	}
	seedCount := float64(len(seeds))

	out := make([]recommend.ScoredContent, 0, len(a.provenance))
	for id, mask := range a.provenance {
		if _, isSeed := seedSet[id]; isSeed {
			continue
		}
		contentScore := a.content[id] / seedCount
		score := contentWeight*contentScore + collaborativeWeight*a.collaborative[id]
		out = append(out, recommend.ScoredContent{
			ContentID: id,
			Score:     score,
			Source:    recommend.SourceGraph,
			BasedOn:   mask.names(),
		})
	}
	return out
}

func (f factor) names() []string {
	names := make([]string, 0, len(factorNames))
	for _, fn := range factorNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}
