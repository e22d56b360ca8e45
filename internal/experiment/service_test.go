// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/logging"
)

func newTestService(t *testing.T, repo Repository, opts ...Option) *Service {
	t.Helper()
	return NewService(repo, logging.Nop(), opts...)
}

// setupExperiment creates a running experiment with the given variant weights.
func setupExperiment(t *testing.T, svc *Service, weights ...float64) (*Experiment, []*Variant) {
	t.Helper()
	ctx := context.Background()
	exp, err := svc.CreateExperiment(ctx, CreateExperimentInput{
		Name:              "exp-" + uuid.NewString(),
		TrafficAllocation: 1,
	})
	if err != nil {
		t.Fatalf("CreateExperiment() error = %v", err)
	}
	variants := make([]*Variant, 0, len(weights))
	for i, w := range weights {
		v, err := svc.AddVariant(ctx, exp.ID, AddVariantInput{
			Name:   string(rune('a' + i)),
			Weight: w,
			Config: []byte(`{"strategy":"graph"}`),
		})
		if err != nil {
			t.Fatalf("AddVariant() error = %v", err)
		}
		variants = append(variants, v)
	}
	if _, err := svc.StartExperiment(ctx, exp.ID); err != nil {
		t.Fatalf("StartExperiment() error = %v", err)
	}
	return exp, variants
}

func TestCreateExperiment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository())

	exp, err := svc.CreateExperiment(ctx, CreateExperimentInput{Name: " homepage ", TrafficAllocation: 0.5})
	if err != nil {
		t.Fatalf("CreateExperiment() error = %v", err)
	}
	if exp.Status != StatusDraft || exp.Name != "homepage" {
		t.Errorf("experiment = %+v, want draft named homepage", exp)
	}

	_, err = svc.CreateExperiment(ctx, CreateExperimentInput{Name: "homepage", TrafficAllocation: 1})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate name error = %v, want ErrConflict", err)
	}

	tests := []struct {
		name string
		in   CreateExperimentInput
	}{
		{"empty name", CreateExperimentInput{Name: "  ", TrafficAllocation: 1}},
		{"allocation above one", CreateExperimentInput{Name: "x", TrafficAllocation: 1.5}},
		{"negative allocation", CreateExperimentInput{Name: "y", TrafficAllocation: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateExperiment(ctx, tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("CreateExperiment() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAddVariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository())
	exp, err := svc.CreateExperiment(ctx, CreateExperimentInput{Name: "variants", TrafficAllocation: 1})
	if err != nil {
		t.Fatalf("CreateExperiment() error = %v", err)
	}

	if _, err := svc.AddVariant(ctx, exp.ID, AddVariantInput{Name: "control", Weight: 1}); err != nil {
		t.Fatalf("AddVariant() error = %v", err)
	}
	if _, err := svc.AddVariant(ctx, exp.ID, AddVariantInput{Name: "control", Weight: 2}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate variant error = %v, want ErrConflict", err)
	}
	if _, err := svc.AddVariant(ctx, uuid.New(), AddVariantInput{Name: "x", Weight: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown experiment error = %v, want ErrNotFound", err)
	}
	if _, err := svc.AddVariant(ctx, exp.ID, AddVariantInput{Name: "zero", Weight: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero weight error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.AddVariant(ctx, exp.ID, AddVariantInput{Name: "bad", Weight: 1, Config: []byte("{")}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad config error = %v, want ErrInvalidInput", err)
	}

	variants, err := svc.ListVariants(ctx, exp.ID)
	if err != nil {
		t.Fatalf("ListVariants() error = %v", err)
	}
	if len(variants) != 1 || variants[0].Name != "control" {
		t.Errorf("ListVariants() = %+v", variants)
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   []func(*Service, uuid.UUID) (*Experiment, error)
		want    Status
		wantErr error
	}{
		{
			name:  "start",
			steps: []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start},
			want:  StatusRunning,
		},
		{
			name:  "start twice is a no-op",
			steps: []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start, (*Service).start},
			want:  StatusRunning,
		},
		{
			name:  "pause running",
			steps: []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start, (*Service).pause},
			want:  StatusPaused,
		},
		{
			name:  "complete running",
			steps: []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start, (*Service).complete},
			want:  StatusCompleted,
		},
		{
			name:    "pause draft",
			steps:   []func(*Service, uuid.UUID) (*Experiment, error){(*Service).pause},
			want:    StatusDraft,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "paused is terminal",
			steps:   []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start, (*Service).pause, (*Service).start},
			want:    StatusPaused,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "completed is terminal",
			steps:   []func(*Service, uuid.UUID) (*Experiment, error){(*Service).start, (*Service).complete, (*Service).pause},
			want:    StatusCompleted,
			wantErr: ErrInvalidTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, NewMemoryRepository())
			exp, err := svc.CreateExperiment(ctx, CreateExperimentInput{Name: "status", TrafficAllocation: 1})
			if err != nil {
				t.Fatalf("CreateExperiment() error = %v", err)
			}
			var lastErr error
			for _, step := range tt.steps {
				_, lastErr = step(svc, exp.ID)
			}
			if !errors.Is(lastErr, tt.wantErr) {
				t.Errorf("last step error = %v, want %v", lastErr, tt.wantErr)
			}
			got, err := svc.GetExperiment(ctx, exp.ID)
			if err != nil {
				t.Fatalf("GetExperiment() error = %v", err)
			}
			if got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
		})
	}

	svc := newTestService(t, NewMemoryRepository())
	if _, err := svc.StartExperiment(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("StartExperiment(unknown) error = %v, want ErrNotFound", err)
	}
}

func (s *Service) start(id uuid.UUID) (*Experiment, error) {
	return s.StartExperiment(context.Background(), id)
}

func (s *Service) pause(id uuid.UUID) (*Experiment, error) {
	return s.PauseExperiment(context.Background(), id)
}

func (s *Service) complete(id uuid.UUID) (*Experiment, error) {
	return s.CompleteExperiment(context.Background(), id)
}

func TestAssignVariant_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := newTestService(t, repo)
	exp, _ := setupExperiment(t, svc, 0.5, 0.5)

	user := uuid.New()
	first, err := svc.AssignVariant(ctx, exp.ID, user)
	if err != nil {
		t.Fatalf("AssignVariant() error = %v", err)
	}
	for range 5 {
		again, err := svc.AssignVariant(ctx, exp.ID, user)
		if err != nil {
			t.Fatalf("AssignVariant() error = %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("re-assigned to %s, want %s", again.Name, first.Name)
		}
	}
	if n := repo.Assignments(); n != 1 {
		t.Errorf("assignments = %d, want 1", n)
	}
}

func TestAssignVariant_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository())

	if _, err := svc.AssignVariant(ctx, uuid.New(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown experiment error = %v, want ErrNotFound", err)
	}

	exp, err := svc.CreateExperiment(ctx, CreateExperimentInput{Name: "empty", TrafficAllocation: 1})
	if err != nil {
		t.Fatalf("CreateExperiment() error = %v", err)
	}
	if _, err := svc.AssignVariant(ctx, exp.ID, uuid.New()); !errors.Is(err, ErrNoVariants) {
		t.Errorf("no variants error = %v, want ErrNoVariants", err)
	}
}

func TestAssignVariant_Distribution(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository())
	exp, variants := setupExperiment(t, svc, 0.8, 0.2)

	heavy := 0
	for i := range 1000 {
		v, err := svc.AssignVariant(ctx, exp.ID, syntheticUser(i))
		if err != nil {
			t.Fatalf("AssignVariant() error = %v", err)
		}
		if v.ID == variants[0].ID {
			heavy++
		}
	}
	if heavy < 700 || heavy > 900 {
		t.Errorf("heavy variant got %d of 1000, want 700-900", heavy)
	}
}

// racingRepo simulates another instance winning the first insert with a
// different variant.
type racingRepo struct {
	*MemoryRepository
	winner  uuid.UUID
	inserts atomic.Int32
}

func (r *racingRepo) InsertAssignment(ctx context.Context, a Assignment) (bool, error) {
	if r.inserts.Add(1) == 1 {
		competitor := a
		competitor.VariantID = r.winner
		if _, err := r.MemoryRepository.InsertAssignment(ctx, competitor); err != nil {
			return false, err
		}
	}
	return r.MemoryRepository.InsertAssignment(ctx, a)
}

func TestAssignVariant_RaceLoserRereads(t *testing.T) {
	ctx := context.Background()
	repo := &racingRepo{MemoryRepository: NewMemoryRepository()}
	svc := newTestService(t, repo)
	exp, variants := setupExperiment(t, svc, 1, 1)

	user := syntheticUser(42)
	computed, err := SelectVariant(derefAll(variants), Bucket(user))
	if err != nil {
		t.Fatalf("SelectVariant() error = %v", err)
	}
	for _, v := range variants {
		if v.ID != computed.ID {
			repo.winner = v.ID
		}
	}

	got, err := svc.AssignVariant(ctx, exp.ID, user)
	if err != nil {
		t.Fatalf("AssignVariant() error = %v", err)
	}
	if got.ID != repo.winner {
		t.Errorf("AssignVariant() = %s, want the stored winner", got.Name)
	}
}

func derefAll(vs []*Variant) []Variant {
	out := make([]Variant, len(vs))
	for i, v := range vs {
		out[i] = *v
	}
	return out
}

func TestAssignVariant_ConcurrentFirstTouch(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{"insert if absent", nil},
		{"local lock", []Option{WithLocker(NewLocalLocker())}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewMemoryRepository()
			svc := newTestService(t, repo, tc.opts...)
			exp, _ := setupExperiment(t, svc, 0.5, 0.3, 0.2)
			user := uuid.New()

			const workers = 32
			results := make([]uuid.UUID, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					v, err := svc.AssignVariant(ctx, exp.ID, user)
					if err != nil {
						t.Errorf("AssignVariant() error = %v", err)
						return
					}
					results[i] = v.ID
				}()
			}
			wg.Wait()

			for _, id := range results[1:] {
				if id != results[0] {
					t.Fatalf("concurrent callers saw different variants: %v", results)
				}
			}
			if n := repo.Assignments(); n != 1 {
				t.Errorf("assignments = %d, want 1", n)
			}
		})
	}
}

// blockingLocker never grants the lock.
type blockingLocker struct{}

func (blockingLocker) Name() string { return "blocking" }

func (blockingLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAssignVariant_LockTimeout(t *testing.T) {
	svc := newTestService(t, NewMemoryRepository(),
		WithLocker(blockingLocker{}),
		WithLockTimeout(10*time.Millisecond),
	)
	exp, _ := setupExperiment(t, svc, 1)

	start := time.Now()
	_, err := svc.AssignVariant(context.Background(), exp.ID, uuid.New())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("AssignVariant() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("lock wait took %v", elapsed)
	}
}

// mapCache is an in-process AssignmentCache.
type mapCache struct {
	mu   sync.Mutex
	data map[assignmentKey]*Variant
	hits int
}

func (c *mapCache) GetAssignment(_ context.Context, experimentID, userID uuid.UUID) (*Variant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[assignmentKey{experimentID, userID}]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapCache) SetAssignment(_ context.Context, experimentID, userID uuid.UUID, v *Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[assignmentKey{experimentID, userID}] = v
}

func TestAssignVariant_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{data: map[assignmentKey]*Variant{}}
	svc := newTestService(t, NewMemoryRepository(), WithAssignmentCache(cache))
	exp, _ := setupExperiment(t, svc, 1)

	user := uuid.New()
	first, err := svc.AssignVariant(ctx, exp.ID, user)
	if err != nil {
		t.Fatalf("AssignVariant() error = %v", err)
	}
	second, err := svc.AssignVariant(ctx, exp.ID, user)
	if err != nil {
		t.Fatalf("AssignVariant() error = %v", err)
	}
	if first.ID != second.ID || cache.hits != 1 {
		t.Errorf("cache hits = %d, variants %s/%s", cache.hits, first.Name, second.Name)
	}
}

func TestRecordConversion_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository())
	exp, variants := setupExperiment(t, svc, 1)
	user := uuid.New()

	if err := svc.RecordConversion(ctx, exp.ID, variants[0].ID, user, MetricExposure, 1); !errors.Is(err, ErrReservedMetric) {
		t.Errorf("reserved name error = %v, want ErrReservedMetric", err)
	}
	if err := svc.RecordConversion(ctx, exp.ID, variants[0].ID, user, "Not Valid", 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad name error = %v, want ErrInvalidInput", err)
	}
	if err := svc.RecordConversion(ctx, exp.ID, uuid.Nil, user, MetricConversion, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil variant error = %v, want ErrInvalidInput", err)
	}
	if err := svc.RecordExposure(ctx, exp.ID, variants[0].ID, uuid.Nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil user error = %v, want ErrInvalidInput", err)
	}
}

func TestGetExperimentMetrics(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository(), WithClock(func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	exp, variants := setupExperiment(t, svc, 0.5, 0.5)
	a, b := variants[0], variants[1]

	for range 10 {
		if err := svc.RecordExposure(ctx, exp.ID, a.ID, uuid.New()); err != nil {
			t.Fatalf("RecordExposure() error = %v", err)
		}
	}
	for range 2 {
		if err := svc.RecordConversion(ctx, exp.ID, a.ID, uuid.New(), MetricConversion, 1); err != nil {
			t.Fatalf("RecordConversion() error = %v", err)
		}
	}
	if err := svc.RecordConversion(ctx, exp.ID, a.ID, uuid.New(), "watch_minutes", 4); err != nil {
		t.Fatalf("RecordConversion() error = %v", err)
	}
	// b has outcomes but no exposures.
	if err := svc.RecordConversion(ctx, exp.ID, b.ID, uuid.New(), MetricConversion, 1); err != nil {
		t.Fatalf("RecordConversion() error = %v", err)
	}

	got, err := svc.GetExperimentMetrics(ctx, exp.ID)
	if err != nil {
		t.Fatalf("GetExperimentMetrics() error = %v", err)
	}
	if len(got.VariantMetrics) != 2 {
		t.Fatalf("len(VariantMetrics) = %d, want 2", len(got.VariantMetrics))
	}

	ma := got.VariantMetrics[0]
	if ma.VariantID != a.ID || ma.Exposures != 10 || ma.Conversions != 2 {
		t.Errorf("variant a = %+v", ma)
	}
	if ma.ConversionRate != 0.2 {
		t.Errorf("conversion rate = %v, want 0.2", ma.ConversionRate)
	}
	if ma.AvgMetricValue != 2 {
		t.Errorf("avg metric value = %v, want 2 ((1+1+4)/3)", ma.AvgMetricValue)
	}

	mb := got.VariantMetrics[1]
	if mb.Exposures != 0 || mb.Conversions != 1 || mb.ConversionRate != 0 {
		t.Errorf("variant b = %+v, want zero rate without exposures", mb)
	}

	if _, err := svc.GetExperimentMetrics(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown experiment error = %v, want ErrNotFound", err)
	}
}

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(timeoutCtx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("contended Lock() error = %v, want DeadlineExceeded", err)
	}

	other, err := l.Lock(ctx, "other")
	if err != nil {
		t.Fatalf("Lock(other) error = %v", err)
	}
	other()

	unlock()
	unlock()
	if n := l.held(); n != 0 {
		t.Errorf("held keys = %d, want 0", n)
	}

	again, err := l.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	again()
}
