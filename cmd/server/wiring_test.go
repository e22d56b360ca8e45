// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/database"
	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/feedback"
	"github.com/tomtom215/marquee/internal/recommend"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:          config.DriverDuckDB,
			Path:            ":memory:",
			MaxMemory:       "512MB",
			CreateMoodTable: true,
			SkipIndexes:     true,
		},
		Events: config.EventsConfig{
			Enabled:              true,
			Transport:            config.TransportGoChannel,
			RetryCount:           1,
			RetryInitialInterval: time.Millisecond,
			CloseTimeout:         time.Second,
		},
		Discovery: config.DiscoveryConfig{
			Graph: config.GraphTuning{
				GenreWeight:         0.35,
				CastWeight:          0.25,
				DirectorWeight:      0.20,
				ThemeWeight:         0.20,
				ContentWeight:       0.6,
				CollaborativeWeight: 0.4,
				CollaborativeDecay:  0.5,
				MaxSeeds:            50,
				MaxCastPerSeed:      10,
				GenreLimit:          30,
				CastLimit:           20,
				DirectorLimit:       15,
				ThemeLimit:          20,
				SimilarUsers:        20,
				MinOverlap:          3,
				ItemsPerNeighbor:    30,
				HighCompletion:      0.7,
				MaxConcurrency:      8,
			},
			Context: config.ContextTuning{
				TimeOfDayLimit: 50,
				DeviceLimit:    50,
				MoodLimit:      50,
				MinCompletion:  0.3,
			},
		},
		Experiments: config.ExperimentsConfig{
			AssignmentLock:        config.LockLocal,
			AssignmentLockTimeout: time.Second,
			CacheSize:             100,
			CacheTTL:              time.Minute,
		},
	}
}

func TestGraphConfig_MatchesDefaults(t *testing.T) {
	got := graphConfig(testConfig().Discovery.Graph)
	if want := recommend.DefaultGraphConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("graphConfig() = %+v, want %+v", got, want)
	}
}

func TestContextConfig_KeepsMoodTable(t *testing.T) {
	tuning := testConfig().Discovery.Context
	tuning.MoodLimit = 7
	got := contextConfig(tuning)
	if got.MoodLimit != 7 {
		t.Errorf("MoodLimit = %d, want 7", got.MoodLimit)
	}
	if len(got.MoodGenres["happy"]) == 0 {
		t.Error("expected built-in mood genres to survive the overlay")
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestAssignmentLocker(t *testing.T) {
	tests := []struct {
		lock     string
		wantName string
		wantErr  bool
	}{
		{config.LockNone, "", false},
		{config.LockLocal, "local", false},
		{config.LockAdvisory, "", true}, // duckdb store
		{config.LockRedis, "", true},    // no client
		{"zookeeper", "", true},
	}

	db := openTestDB(t, testConfig())
	for _, tt := range tests {
		t.Run(tt.lock, func(t *testing.T) {
			cfg := testConfig()
			cfg.Experiments.AssignmentLock = tt.lock
			locker, err := assignmentLocker(cfg, db, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("assignmentLocker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantName == "" {
				if locker != nil {
					t.Errorf("locker = %T, want nil", locker)
				}
				return
			}
			if locker == nil || locker.Name() != tt.wantName {
				t.Errorf("locker = %v, want %s", locker, tt.wantName)
			}
		})
	}
}

func TestAssignmentCache(t *testing.T) {
	cfg := testConfig()
	if _, ok := assignmentCache(cfg, nil).(*cache.AssignmentLRU); !ok {
		t.Error("expected LRU cache when cache size is positive")
	}
	cfg.Experiments.CacheSize = 0
	if c := assignmentCache(cfg, nil); c != nil {
		t.Errorf("assignmentCache() = %T, want nil", c)
	}
}

func TestConsumerConfig(t *testing.T) {
	events := testConfig().Events
	events.ExposureTopic = "custom.exposure"
	got := consumerConfig(&events)

	if got.Topics.Exposure != "custom.exposure" {
		t.Errorf("Exposure topic = %q", got.Topics.Exposure)
	}
	if got.RetryMaxRetries != 1 || got.RetryInitialInterval != time.Millisecond {
		t.Errorf("retry = %d/%v, want 1/1ms", got.RetryMaxRetries, got.RetryInitialInterval)
	}
	if got.RetryMaxInterval != feedback.DefaultConsumerConfig().RetryMaxInterval {
		t.Errorf("RetryMaxInterval = %v, want default", got.RetryMaxInterval)
	}
}

func openTestDB(t *testing.T, cfg *config.Config) *database.DB {
	t.Helper()
	db, err := database.New(context.Background(), &cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewApp_Components(t *testing.T) {
	tests := []struct {
		name          string
		events        bool
		wantPublisher bool
	}{
		{"events enabled", true, true},
		{"events disabled", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Events.Enabled = tt.events
			db := openTestDB(t, cfg)
			a, err := newApp(context.Background(), cfg, db)
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			t.Cleanup(a.Close)

			if a.recommender == nil || a.filter == nil || a.experiments == nil {
				t.Fatalf("app = %+v, want recommender, filter and experiments set", a)
			}
			if got := a.publisher != nil; got != tt.wantPublisher {
				t.Errorf("publisher set = %v, want %v", got, tt.wantPublisher)
			}
			if got := a.transport != nil; got != tt.wantPublisher {
				t.Errorf("transport set = %v, want %v", got, tt.wantPublisher)
			}
		})
	}
}

func TestApp_FeedbackReachesExperiments(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := testConfig()
	db := openTestDB(t, cfg)
	a, err := newApp(ctx, cfg, db)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(a.Close)

	exp, err := a.experiments.CreateExperiment(ctx, experiment.CreateExperimentInput{Name: "ranking", TrafficAllocation: 1})
	if err != nil {
		t.Fatalf("CreateExperiment() error = %v", err)
	}
	if _, err := a.experiments.AddVariant(ctx, exp.ID, experiment.AddVariantInput{Name: "graph", Weight: 1}); err != nil {
		t.Fatalf("AddVariant() error = %v", err)
	}
	if _, err := a.experiments.StartExperiment(ctx, exp.ID); err != nil {
		t.Fatalf("StartExperiment() error = %v", err)
	}
	user := uuid.New()
	variant, err := a.experiments.AssignVariant(ctx, exp.ID, user)
	if err != nil {
		t.Fatalf("AssignVariant() error = %v", err)
	}

	runner, err := a.feedbackRunnerFactory(cfg)()
	if err != nil {
		t.Fatalf("build runner: %v", err)
	}
	consumer := runner.(*feedback.Consumer)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Run(runCtx) }()
	t.Cleanup(func() {
		stop()
		<-done
	})

	select {
	case <-consumer.Running():
	case <-ctx.Done():
		t.Fatal("consumer did not start")
	}

	if err := a.publisher.PublishExposure(ctx, feedback.ExposureEvent{
		ExperimentID: exp.ID,
		VariantID:    variant.ID,
		UserID:       user,
	}); err != nil {
		t.Fatalf("PublishExposure() error = %v", err)
	}

	for {
		m, err := a.experiments.GetExperimentMetrics(ctx, exp.ID)
		if err != nil {
			t.Fatalf("GetExperimentMetrics() error = %v", err)
		}
		if len(m.VariantMetrics) == 1 && m.VariantMetrics[0].Exposures == 1 {
			return
		}
		select {
		case <-ctx.Done():
			t.Fatalf("exposure never recorded: %+v", m.VariantMetrics)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
