// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

type fakeStore struct {
	mu sync.Mutex

	window  []Candidate
	device  []Candidate
	moods   map[string][]MoodCandidate
	genres  []GenreCandidate
	hasMood bool

	checkErr error
	moodErr  error
	genreErr error
	checks   atomic.Int32

	// recorded arguments
	windowStart, windowEnd int
	minCompletion          float64
	deviceQuery            DeviceQuery
	genresAsked            []string
	moodCalls              int
}

func (f *fakeStore) TimeWindowCandidates(ctx context.Context, startHour, endHour int, minCompletion float64, _ int) ([]Candidate, error) {
	f.mu.Lock()
	f.windowStart, f.windowEnd, f.minCompletion = startHour, endHour, minCompletion
	f.mu.Unlock()
	return f.window, ctx.Err()
}

func (f *fakeStore) DeviceCandidates(ctx context.Context, q DeviceQuery) ([]Candidate, error) {
	f.mu.Lock()
	f.deviceQuery = q
	f.mu.Unlock()
	return f.device, ctx.Err()
}

func (f *fakeStore) MoodCandidates(ctx context.Context, mood string, _ int) ([]MoodCandidate, error) {
	f.mu.Lock()
	f.moodCalls++
	f.mu.Unlock()
	if f.moodErr != nil {
		return nil, f.moodErr
	}
	return f.moods[mood], ctx.Err()
}

func (f *fakeStore) GenreCandidates(ctx context.Context, genres []string, _ int) ([]GenreCandidate, error) {
	f.mu.Lock()
	f.genresAsked = genres
	f.mu.Unlock()
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	return f.genres, ctx.Err()
}

func (f *fakeStore) HasMoodTags(context.Context) (bool, error) {
	f.checks.Add(1)
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.hasMood, nil
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 4, hour, 15, 0, 0, time.UTC)
	}
}

func newTestFilter(t *testing.T, store Store, hour int) *Filter {
	t.Helper()
	f, err := NewFilter(store, recommend.DefaultContextConfig(), logging.Nop(), WithClock(fixedClock(hour)))
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}
	return f
}

func ids(items []recommend.ScoredContent) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ContentID
	}
	return out
}

func TestGenerateCandidates_EmptyContext(t *testing.T) {
	f := newTestFilter(t, &fakeStore{}, 12)
	got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, recommend.Context{}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("GenerateCandidates() = %v, want empty non-nil slice", got)
	}
}

func TestGenerateCandidates_TimeOfDay(t *testing.T) {
	a := uuid.New()
	store := &fakeStore{window: []Candidate{{ContentID: a, Popularity: 0.5}}}
	f := newTestFilter(t, store, 20)

	hourly := make([]float64, 24)
	hourly[20] = 0.9
	profile := recommend.UserProfile{TemporalPatterns: recommend.TemporalPatterns{HourlyPatterns: hourly}}

	got, err := f.GenerateCandidates(context.Background(), profile, recommend.Context{TimeOfDay: "Evening"}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if store.windowStart != 18 || store.windowEnd != 24 || store.minCompletion != 0.3 {
		t.Errorf("window query = [%d, %d) completion %v, want [18, 24) 0.3",
			store.windowStart, store.windowEnd, store.minCompletion)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if !near(got[0].Score, 0.6*0.5+0.4*0.9) {
		t.Errorf("score = %v, want %v", got[0].Score, 0.6*0.5+0.4*0.9)
	}
	if got[0].Source != recommend.SourceTimeOfDay || !slices.Equal(got[0].BasedOn, []string{"time_of_day:evening"}) {
		t.Errorf("provenance = %s %v", got[0].Source, got[0].BasedOn)
	}
}

func TestGenerateCandidates_TimeOfDayUsesUTCHour(t *testing.T) {
	store := &fakeStore{window: []Candidate{{ContentID: uuid.New(), Popularity: 0.5}}}
	// 22:15 at UTC+5 is 17:15 UTC.
	zone := time.FixedZone("UTC+5", 5*60*60)
	clock := func() time.Time { return time.Date(2026, 3, 4, 22, 15, 0, 0, zone) }
	f, err := NewFilter(store, recommend.DefaultContextConfig(), logging.Nop(), WithClock(clock))
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}

	hourly := make([]float64, 24)
	hourly[17] = 1.0
	hourly[22] = 0.0
	profile := recommend.UserProfile{TemporalPatterns: recommend.TemporalPatterns{HourlyPatterns: hourly}}

	got, err := f.GenerateCandidates(context.Background(), profile, recommend.Context{TimeOfDay: "afternoon"}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if want := TimeOfDayScore(0.5, 1.0); !near(got[0].Score, want) {
		t.Errorf("score = %v, want %v (hour slot 17)", got[0].Score, want)
	}
}

func TestGenerateCandidates_UnknownTimeOfDaySkipsPass(t *testing.T) {
	store := &fakeStore{window: []Candidate{{ContentID: uuid.New(), Popularity: 1}}}
	f := newTestFilter(t, store, 9)
	got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, recommend.Context{TimeOfDay: "brunch"}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
}

func TestGenerateCandidates_DeviceMobile(t *testing.T) {
	short, long := uuid.New(), uuid.New()
	store := &fakeStore{device: []Candidate{
		{ContentID: long, Popularity: 0.5, RuntimeMinutes: intPtr(90)},
		{ContentID: short, Popularity: 0.5, RuntimeMinutes: intPtr(25)},
	}}
	f := newTestFilter(t, store, 9)

	got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{},
		recommend.Context{Device: recommend.DeviceMobile}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if store.deviceQuery.MaxRuntime != 60 || store.deviceQuery.Order != RuntimeShortestFirst {
		t.Errorf("device query = %+v", store.deviceQuery)
	}
	if !slices.Equal(ids(got), []uuid.UUID{short, long}) {
		t.Errorf("order = %v, want short before long", ids(got))
	}
	if !slices.Equal(got[0].BasedOn, []string{"device:mobile"}) {
		t.Errorf("BasedOn = %v", got[0].BasedOn)
	}
}

func TestGenerateCandidates_MoodTags(t *testing.T) {
	a := uuid.New()
	store := &fakeStore{
		hasMood: true,
		moods:   map[string][]MoodCandidate{"happy": {{ContentID: a, Popularity: 0.5, Relevance: 0.8}}},
	}
	f := newTestFilter(t, store, 9)

	got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, recommend.Context{Mood: "Happy"}, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if len(got) != 1 || !near(got[0].Score, 0.77) {
		t.Fatalf("got %+v, want one item scoring 0.77", got)
	}
	if !slices.Equal(got[0].BasedOn, []string{"mood:happy"}) {
		t.Errorf("BasedOn = %v", got[0].BasedOn)
	}
	if store.genresAsked != nil {
		t.Errorf("genre fallback should not run when mood tags match")
	}
}

func TestGenerateCandidates_MoodFallback(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	genres := []GenreCandidate{
		{ContentID: a, Popularity: 0.2, Matched: 3},
		{ContentID: b, Popularity: 0.9, Matched: 1},
	}
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{"table unavailable", &fakeStore{genres: genres}},
		{"no rows for mood", &fakeStore{hasMood: true, moods: map[string][]MoodCandidate{}, genres: genres}},
		{"check error", &fakeStore{checkErr: errors.New("no such table"), genres: genres}},
		{"mood query error", &fakeStore{hasMood: true, moodErr: errors.New("boom"), genres: genres}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFilter(t, tt.store, 9)
			got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, recommend.Context{Mood: "happy"}, 10)
			if err != nil {
				t.Fatalf("GenerateCandidates() error = %v", err)
			}
			if !slices.Equal(tt.store.genresAsked, []string{"comedy", "family", "animation"}) {
				t.Errorf("genres asked = %v", tt.store.genresAsked)
			}
			if len(got) != 2 {
				t.Fatalf("len(got) = %d, want 2", len(got))
			}
			// a: 0.5*1 + 0.5*0.2 = 0.6, b: 0.5*(1/3) + 0.5*0.9 = 0.6167
			if got[0].ContentID != b || got[1].ContentID != a {
				t.Errorf("order = %v, want [b a]", ids(got))
			}
			if !near(got[1].Score, 0.6) {
				t.Errorf("score(a) = %v, want 0.6", got[1].Score)
			}
			want := []string{"mood:happy", "genres:comedy,family,animation"}
			if !slices.Equal(got[0].BasedOn, want) {
				t.Errorf("BasedOn = %v, want %v", got[0].BasedOn, want)
			}
		})
	}
}

func TestGenerateCandidates_GenreErrorPropagates(t *testing.T) {
	boom := errors.New("genre query failed")
	f := newTestFilter(t, &fakeStore{genreErr: boom}, 9)
	before := testutil.ToFloat64(metrics.CandidatesErrors.WithLabelValues(recommend.SourceContext))

	_, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, recommend.Context{Mood: "sad"}, 10)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if got := testutil.ToFloat64(metrics.CandidatesErrors.WithLabelValues(recommend.SourceContext)) - before; got != 1 {
		t.Errorf("context candidate errors delta = %v, want 1", got)
	}
}

func TestGenerateCandidates_UnionDedupesAndTruncates(t *testing.T) {
	shared, onlyDevice, onlyTime := uuid.New(), uuid.New(), uuid.New()
	store := &fakeStore{
		window: []Candidate{
			{ContentID: shared, Popularity: 1.0},
			{ContentID: onlyTime, Popularity: 0.1},
		},
		device: []Candidate{
			{ContentID: shared, Popularity: 0.2, RuntimeMinutes: intPtr(120)},
			{ContentID: onlyDevice, Popularity: 0.8, RuntimeMinutes: intPtr(120)},
		},
	}
	f := newTestFilter(t, store, 20)
	rc := recommend.Context{TimeOfDay: "evening", Device: recommend.DeviceTV}

	got, err := f.GenerateCandidates(context.Background(), recommend.UserProfile{}, rc, 10)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	// time: shared 0.8, onlyTime 0.26; device: shared 0.6, onlyDevice 0.9
	want := []uuid.UUID{onlyDevice, shared, onlyTime}
	if !slices.Equal(ids(got), want) {
		t.Fatalf("order = %v, want %v", ids(got), want)
	}
	if got[1].Source != recommend.SourceTimeOfDay || !near(got[1].Score, 0.8) {
		t.Errorf("duplicate kept %s %v, want the higher-scoring time_of_day entry", got[1].Source, got[1].Score)
	}

	got, err = f.GenerateCandidates(context.Background(), recommend.UserProfile{}, rc, 2)
	if err != nil {
		t.Fatalf("GenerateCandidates() error = %v", err)
	}
	if !slices.Equal(ids(got), want[:2]) {
		t.Errorf("truncated = %v, want %v", ids(got), want[:2])
	}
}

func TestGenerateCandidates_StoreErrorPropagates(t *testing.T) {
	f := newTestFilter(t, &fakeStore{}, 9)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.GenerateCandidates(ctx, recommend.UserProfile{}, recommend.Context{Device: recommend.DeviceTV}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMoodCapability_CachesSuccessOnly(t *testing.T) {
	store := &fakeStore{checkErr: errors.New("transient")}
	m := NewMoodCapability(store)
	ctx := context.Background()

	if _, err := m.Available(ctx); err == nil {
		t.Fatal("Available() error = nil, want check error")
	}
	if !m.CheckedAt().IsZero() {
		t.Error("failed check should not be cached")
	}

	store.checkErr = nil
	store.hasMood = true
	for range 3 {
		ok, err := m.Available(ctx)
		if err != nil || !ok {
			t.Fatalf("Available() = %v, %v; want true, nil", ok, err)
		}
	}
	if n := store.checks.Load(); n != 2 {
		t.Errorf("checks = %d, want 2", n)
	}

	store.hasMood = false
	ok, err := m.Refresh(ctx)
	if err != nil || ok {
		t.Errorf("Refresh() = %v, %v; want false, nil", ok, err)
	}
	if ok, _ := m.Available(ctx); ok {
		t.Error("Available() should reflect the refreshed answer")
	}
}

func TestNewFilter_Validation(t *testing.T) {
	if _, err := NewFilter(nil, recommend.DefaultContextConfig(), logging.Nop()); err == nil {
		t.Error("NewFilter(nil store) error = nil")
	}
	cfg := recommend.DefaultContextConfig()
	cfg.MoodLimit = 0
	if _, err := NewFilter(&fakeStore{}, cfg, logging.Nop()); err == nil {
		t.Error("NewFilter(bad config) error = nil")
	}
}
