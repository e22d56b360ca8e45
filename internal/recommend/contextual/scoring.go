// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package contextual

import (
	"strings"

	"github.com/tomtom215/marquee/internal/recommend"
)

// Blend weights.
const (
	timePopularityWeight = 0.6
	timePreferenceWeight = 0.4

	devicePopularityWeight = 0.5
	deviceBoostWeight      = 0.5

	moodTagWeight        = 0.9
	moodPopularityWeight = 0.1

	genreMatchWeight      = 0.5
	genrePopularityWeight = 0.5

	temporalHourlyWeight  = 0.6
	temporalWeekdayWeight = 0.4

	// neutralScore is used when a pattern slot is missing.
	neutralScore = 0.5
)

// Device boosts. Content that fits the device gets the full boost.
const (
	boostFit     = 1.0
	boostNeutral = 0.5

	tvLongRuntime      = 60
	mobileShortRuntime = 30
)

// Time-of-day labels.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// TimeRange maps a time-of-day label to its [start, end) hour range.
func TimeRange(label string) (start, end int, ok bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case Morning:
		return 6, 12, true
	case Afternoon:
		return 12, 18, true
	case Evening:
		return 18, 24, true
	case Night:
		return 0, 6, true
	default:
		return 0, 0, false
	}
}

// slot returns values[i], or the neutral score when i is out of range.
func slot(values []float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return neutralScore
	}
	return values[i]
}

// HourlyPreference returns the user's preference for hour, or 0.5 when the
// pattern has no such slot.
func HourlyPreference(p recommend.TemporalPatterns, hour int) float64 {
	return slot(p.HourlyPatterns, hour)
}

// CalculateTemporalScore blends hourly and weekday preference as
// 0.6*hourly + 0.4*weekday. Missing slots count as 0.5. It performs no I/O.
func CalculateTemporalScore(p recommend.TemporalPatterns, hour, weekday int) float64 {
	return temporalHourlyWeight*slot(p.HourlyPatterns, hour) +
		temporalWeekdayWeight*slot(p.WeekdayPatterns, weekday)
}

// TimeOfDayScore blends popularity with the user's hourly preference.
func TimeOfDayScore(popularity, preference float64) float64 {
	return timePopularityWeight*popularity + timePreferenceWeight*preference
}

// DeviceBoost favors long content on TV and short content on mobile and
// tablet. Unknown runtimes and desktop get a neutral boost.
func DeviceBoost(device recommend.DeviceType, runtimeMinutes *int) float64 {
	if runtimeMinutes == nil {
		return boostNeutral
	}
	runtime := *runtimeMinutes
	switch device {
	case recommend.DeviceTV:
		if runtime >= tvLongRuntime {
			return boostFit
		}
	case recommend.DeviceMobile, recommend.DeviceTablet:
		if runtime <= mobileShortRuntime {
			return boostFit
		}
	}
	return boostNeutral
}

// DeviceScore blends popularity 50/50 with the device boost.
func DeviceScore(device recommend.DeviceType, popularity float64, runtimeMinutes *int) float64 {
	return devicePopularityWeight*popularity + deviceBoostWeight*DeviceBoost(device, runtimeMinutes)
}

// MoodTagScore blends mood relevance with popularity.
func MoodTagScore(relevance, popularity float64) float64 {
	return moodTagWeight*relevance + moodPopularityWeight*popularity
}

// GenreMatchScore blends the share of requested genres matched with popularity.
func GenreMatchScore(matched, requested int, popularity float64) float64 {
	ratio := 0.0
	if requested > 0 {
		ratio = float64(matched) / float64(requested)
		if ratio > 1 {
			ratio = 1
		}
	}
	return genreMatchWeight*ratio + genrePopularityWeight*popularity
}

// deviceQuery returns the runtime bounds and ordering for a device.
func deviceQuery(cfg recommend.ContextConfig, device recommend.DeviceType) DeviceQuery {
	q := DeviceQuery{Limit: cfg.DeviceLimit}
	switch device {
	case recommend.DeviceTV:
		q.MinRuntime = cfg.TVMinRuntime
		q.Order = RuntimeLongestFirst
	case recommend.DeviceMobile, recommend.DeviceTablet:
		q.MaxRuntime = cfg.MobileMaxRuntime
		q.Order = RuntimeShortestFirst
	}
	return q
}

// MoodGenres returns the genre list for a mood, falling back to the defaults.
func MoodGenres(cfg recommend.ContextConfig, mood string) []string {
	if genres, ok := cfg.MoodGenres[normalizeMood(mood)]; ok && len(genres) > 0 {
		return genres
	}
	return cfg.DefaultMoodGenres
}

func normalizeMood(mood string) string {
	return strings.ToLower(strings.TrimSpace(mood))
}
