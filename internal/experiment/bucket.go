// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package experiment

import (
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// unitScale maps the top 53 bits of a hash onto [0, 1).
const unitScale = 1.0 / (1 << 53)

func toUnit(h uint64) float64 {
	return float64(h>>11) * unitScale
}

// Bucket maps a user to a stable position in [0, 1).
//
// Only the user id is hashed, so a user holds the same position in every
// experiment. Changing this would re-bucket users of running experiments.
func Bucket(userID uuid.UUID) float64 {
	return toUnit(xxhash.Sum64String(userID.String()))
}

// SelectVariant walks variants in order, accumulating normalized weight, and
// returns the first whose cumulative share exceeds bucket. The last variant
// absorbs rounding shortfall.
func SelectVariant(variants []Variant, bucket float64) (Variant, error) {
	if len(variants) == 0 {
		return Variant{}, ErrNoVariants
	}
	var total float64
	for _, v := range variants {
		total += v.Weight
	}
	if total <= 0 {
		return variants[len(variants)-1], nil
	}

	var cumulative float64
	for _, v := range variants {
		cumulative += v.Weight / total
		if bucket < cumulative {
			return v, nil
		}
	}
	return variants[len(variants)-1], nil
}

// Eligible reports whether a user falls inside an experiment's traffic
// allocation. The hash is salted with the experiment id so eligibility is
// independent of variant bucketing. AssignVariant does not consult it.
func Eligible(exp *Experiment, userID uuid.UUID) bool {
	if exp.TrafficAllocation >= 1 {
		return true
	}
	if exp.TrafficAllocation <= 0 {
		return false
	}
	d := xxhash.New()
	_, _ = d.WriteString(exp.ID.String())
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(userID.String())
	return toUnit(d.Sum64()) < exp.TrafficAllocation
}
