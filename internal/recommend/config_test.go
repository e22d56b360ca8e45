// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"
	"testing"
)

func TestDefaultContentWeightsSumToOne(t *testing.T) {
	t.Parallel()

	w := DefaultGraphConfig().Weights
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightEpsilon {
		t.Fatalf("content weights sum = %v, want 1.0", sum)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestDefaultConfigsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultGraphConfig().Validate(); err != nil {
		t.Errorf("DefaultGraphConfig().Validate() = %v", err)
	}
	if err := DefaultContextConfig().Validate(); err != nil {
		t.Errorf("DefaultContextConfig().Validate() = %v", err)
	}
}

func TestGraphConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*GraphConfig)
		wantErr bool
	}{
		{"defaults", func(*GraphConfig) {}, false},
		{"weights drift", func(c *GraphConfig) { c.Weights.Genre = 0.4 }, true},
		{"negative weight", func(c *GraphConfig) { c.Weights.Theme = -0.2; c.Weights.Genre = 0.75 }, true},
		{"rebalanced weights", func(c *GraphConfig) { c.Weights = ContentWeights{0.25, 0.25, 0.25, 0.25} }, false},
		{"decay of one", func(c *GraphConfig) { c.CollaborativeDecay = 1 }, true},
		{"zero decay", func(c *GraphConfig) { c.CollaborativeDecay = 0 }, true},
		{"fusion above one", func(c *GraphConfig) { c.ContentWeight = 1.2 }, true},
		{"zero seeds", func(c *GraphConfig) { c.MaxSeeds = 0 }, true},
		{"zero director limit", func(c *GraphConfig) { c.DirectorLimit = 0 }, true},
		{"zero min overlap", func(c *GraphConfig) { c.MinOverlap = 0 }, true},
		{"negative concurrency", func(c *GraphConfig) { c.MaxConcurrency = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultGraphConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContextConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultContextConfig()
	cfg.MinCompletion = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for min completion of 1")
	}

	cfg = DefaultContextConfig()
	cfg.DefaultMoodGenres = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty default mood genres")
	}
}
