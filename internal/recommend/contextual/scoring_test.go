// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"math"
	"slices"
	"testing"

	"github.com/tomtom215/marquee/internal/recommend"
)

const scoreTolerance = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < scoreTolerance
}

func intPtr(v int) *int { return &v }

func TestTimeRange(t *testing.T) {
	tests := []struct {
		label      string
		start, end int
		ok         bool
	}{
		{"morning", 6, 12, true},
		{"Afternoon", 12, 18, true},
		{" evening ", 18, 24, true},
		{"night", 0, 6, true},
		{"brunch", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			start, end, ok := TimeRange(tt.label)
			if start != tt.start || end != tt.end || ok != tt.ok {
				t.Errorf("TimeRange(%q) = (%d, %d, %v), want (%d, %d, %v)",
					tt.label, start, end, ok, tt.start, tt.end, tt.ok)
			}
		})
	}
}

func TestCalculateTemporalScore(t *testing.T) {
	hourly := make([]float64, 24)
	hourly[14] = 0.3
	weekday := make([]float64, 7)
	weekday[2] = 0.7
	p := recommend.TemporalPatterns{HourlyPatterns: hourly, WeekdayPatterns: weekday}

	tests := []struct {
		name          string
		patterns      recommend.TemporalPatterns
		hour, weekday int
		want          float64
	}{
		{"both slots present", p, 14, 2, 0.46},
		{"empty patterns are neutral", recommend.TemporalPatterns{}, 14, 2, 0.5},
		{"hour out of range", p, 30, 2, 0.6*0.5 + 0.4*0.7},
		{"negative weekday", p, 14, -1, 0.6*0.3 + 0.4*0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTemporalScore(tt.patterns, tt.hour, tt.weekday)
			if !near(got, tt.want) {
				t.Errorf("CalculateTemporalScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceBoost(t *testing.T) {
	tests := []struct {
		name    string
		device  recommend.DeviceType
		runtime *int
		want    float64
	}{
		{"tv long", recommend.DeviceTV, intPtr(120), 1.0},
		{"tv exactly 60", recommend.DeviceTV, intPtr(60), 1.0},
		{"tv medium", recommend.DeviceTV, intPtr(45), 0.5},
		{"mobile short", recommend.DeviceMobile, intPtr(25), 1.0},
		{"mobile exactly 30", recommend.DeviceMobile, intPtr(30), 1.0},
		{"mobile long", recommend.DeviceMobile, intPtr(90), 0.5},
		{"tablet short", recommend.DeviceTablet, intPtr(20), 1.0},
		{"desktop", recommend.DeviceDesktop, intPtr(120), 0.5},
		{"unknown runtime", recommend.DeviceTV, nil, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeviceBoost(tt.device, tt.runtime); got != tt.want {
				t.Errorf("DeviceBoost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceScore_MobilePrefersShortContent(t *testing.T) {
	short := DeviceScore(recommend.DeviceMobile, 0.5, intPtr(25))
	long := DeviceScore(recommend.DeviceMobile, 0.5, intPtr(90))
	if !near(short, 0.75) || !near(long, 0.5) {
		t.Fatalf("DeviceScore() short = %v, long = %v; want 0.75, 0.5", short, long)
	}
	if short <= long {
		t.Errorf("short content should outrank long content on mobile")
	}
}

func TestMoodAndGenreScores(t *testing.T) {
	if got := MoodTagScore(0.8, 0.5); !near(got, 0.77) {
		t.Errorf("MoodTagScore() = %v, want 0.77", got)
	}
	tests := []struct {
		matched, requested int
		pop, want          float64
	}{
		{3, 3, 0.4, 0.7},
		{1, 2, 0.0, 0.25},
		{0, 0, 1.0, 0.5},
		{5, 2, 0.0, 0.5},
	}
	for _, tt := range tests {
		if got := GenreMatchScore(tt.matched, tt.requested, tt.pop); !near(got, tt.want) {
			t.Errorf("GenreMatchScore(%d, %d, %v) = %v, want %v",
				tt.matched, tt.requested, tt.pop, got, tt.want)
		}
	}
}

func TestDeviceQueryBounds(t *testing.T) {
	cfg := recommend.DefaultContextConfig()
	tests := []struct {
		device recommend.DeviceType
		want   DeviceQuery
	}{
		{recommend.DeviceTV, DeviceQuery{MinRuntime: 30, Order: RuntimeLongestFirst, Limit: 50}},
		{recommend.DeviceMobile, DeviceQuery{MaxRuntime: 60, Order: RuntimeShortestFirst, Limit: 50}},
		{recommend.DeviceTablet, DeviceQuery{MaxRuntime: 60, Order: RuntimeShortestFirst, Limit: 50}},
		{recommend.DeviceDesktop, DeviceQuery{Limit: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.device.String(), func(t *testing.T) {
			if got := deviceQuery(cfg, tt.device); got != tt.want {
				t.Errorf("deviceQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMoodGenres(t *testing.T) {
	cfg := recommend.DefaultContextConfig()
	if got := MoodGenres(cfg, "Happy"); !slices.Equal(got, []string{"comedy", "family", "animation"}) {
		t.Errorf("MoodGenres(Happy) = %v", got)
	}
	if got := MoodGenres(cfg, "bored"); !slices.Equal(got, []string{"drama", "comedy"}) {
		t.Errorf("MoodGenres(bored) = %v, want defaults", got)
	}
}
