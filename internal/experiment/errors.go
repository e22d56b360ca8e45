// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import "errors"

var (
	// ErrNotFound is returned when an experiment, variant or assignment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for a duplicate experiment name or a duplicate
	// variant name within an experiment.
	ErrConflict = errors.New("already exists")

	// ErrNoVariants is returned when assigning into an experiment without variants.
	ErrNoVariants = errors.New("experiment has no variants")

	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrReservedMetric is returned when a conversion uses the exposure metric name.
	ErrReservedMetric = errors.New("metric name is reserved")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
)
