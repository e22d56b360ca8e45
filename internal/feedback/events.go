// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Default topics.
const (
	TopicExposure    = "discovery.exposure"
	TopicConversion  = "discovery.conversion"
	TopicPoisonQueue = "discovery.poison"
)

// Consumer outcomes recorded in metrics.
const (
	ResultRecorded  = "recorded"
	ResultMalformed = "malformed"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

// ExposureEvent reports that a user was shown a variant.
type ExposureEvent struct {
	ExperimentID uuid.UUID `json:"experiment_id" validate:"uuid_set"`
	VariantID    uuid.UUID `json:"variant_id" validate:"uuid_set"`
	UserID       uuid.UUID `json:"user_id" validate:"uuid_set"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ConversionEvent reports an outcome metric for a user in a variant.
type ConversionEvent struct {
	ExperimentID uuid.UUID `json:"experiment_id" validate:"uuid_set"`
	VariantID    uuid.UUID `json:"variant_id" validate:"uuid_set"`
	UserID       uuid.UUID `json:"user_id" validate:"uuid_set"`
	MetricName   string    `json:"metric_name" validate:"metric_name"`
	MetricValue  float64   `json:"metric_value"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Topics names the subjects events travel on.
type Topics struct {
	Exposure    string
	Conversion  string
	PoisonQueue string
}

// DefaultTopics returns the standard topic names.
func DefaultTopics() Topics {
	return Topics{
		Exposure:    TopicExposure,
		Conversion:  TopicConversion,
		PoisonQueue: TopicPoisonQueue,
	}
}

func (t Topics) withDefaults() Topics {
	d := DefaultTopics()
	if t.Exposure == "" {
		t.Exposure = d.Exposure
	}
	if t.Conversion == "" {
		t.Conversion = d.Conversion
	}
	if t.PoisonQueue == "" {
		t.PoisonQueue = d.PoisonQueue
	}
	return t
}
