// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Candidate sources.
const (
	SourceGraph     = "graph"
	SourceTimeOfDay = "time_of_day"
	SourceDevice    = "device"
	SourceMood      = "mood"

	// SourceContext labels the context filter as a whole in metrics and logs.
	SourceContext = "context"
)

// ScoredContent is a candidate produced by a generator.
type ScoredContent struct {
	ContentID uuid.UUID `json:"content_id"`
	Score     float64   `json:"score"`
	Source    string    `json:"source"`

	// BasedOn is a provenance list for logging and debugging,
	// e.g. "time_of_day:evening" or "genres:comedy,family".
	BasedOn []string `json:"based_on,omitempty"`
}

// TemporalPatterns is a user's viewing preference by hour (24 slots) and
// weekday (7 slots, Sunday = 0). Values are expected in [0, 1].
type TemporalPatterns struct {
	HourlyPatterns  []float64 `json:"hourly_patterns"`
	WeekdayPatterns []float64 `json:"weekday_patterns"`
}

// UserProfile is supplied by the caller; the generators never load it.
type UserProfile struct {
	UserID           uuid.UUID        `json:"user_id"`
	TemporalPatterns TemporalPatterns `json:"temporal_patterns"`
}

// DeviceType is the class of device a request comes from.
type DeviceType int

// Device classes. DeviceUnspecified means no device pass is run.
const (
	DeviceUnspecified DeviceType = iota
	DeviceTV
	DeviceMobile
	DeviceDesktop
	DeviceTablet
)

// String returns the lowercase device name.
func (d DeviceType) String() string {
	switch d {
	case DeviceTV:
		return "tv"
	case DeviceMobile:
		return "mobile"
	case DeviceDesktop:
		return "desktop"
	case DeviceTablet:
		return "tablet"
	default:
		return "unspecified"
	}
}

// ParseDeviceType parses a device name, case-insensitively.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tv":
		return DeviceTV, nil
	case "mobile":
		return DeviceMobile, nil
	case "desktop":
		return DeviceDesktop, nil
	case "tablet":
		return DeviceTablet, nil
	case "":
		return DeviceUnspecified, nil
	default:
		return DeviceUnspecified, fmt.Errorf("unknown device type %q", s)
	}
}

// Context is the situational context of a request. Empty fields are absent
// and skip their pass.
type Context struct {
	TimeOfDay string     `json:"time_of_day,omitempty"`
	Device    DeviceType `json:"device_type,omitempty"`
	Mood      string     `json:"mood,omitempty"`
}

// SortByScore sorts candidates by descending score. Ties are broken by
// content ID so output is deterministic.
func SortByScore(items []ScoredContent) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ContentID.String() < items[j].ContentID.String()
	})
}

// Truncate returns at most limit items without reordering.
func Truncate(items []ScoredContent, limit int) []ScoredContent {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
