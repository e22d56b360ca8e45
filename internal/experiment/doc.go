// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package experiment runs A/B tests over recommendation strategies.

An experiment owns a set of weighted variants. Users are bucketed by a stable
hash of their user id and the first assignment persisted for an
(experiment, user) pair is authoritative for the lifetime of the experiment:

	svc := experiment.NewService(repo, logger)
	exp, err := svc.CreateExperiment(ctx, experiment.CreateExperimentInput{
		Name:              "graph-vs-context",
		TrafficAllocation: 1.0,
	})
	_, err = svc.AddVariant(ctx, exp.ID, experiment.AddVariantInput{Name: "control", Weight: 0.8})
	_, err = svc.AddVariant(ctx, exp.ID, experiment.AddVariantInput{Name: "treatment", Weight: 0.2})
	_, err = svc.StartExperiment(ctx, exp.ID)

	variant, err := svc.AssignVariant(ctx, exp.ID, userID)
	err = svc.RecordExposure(ctx, exp.ID, variant.ID, userID)

# Status

Experiments move draft -> running -> {paused, completed}. Paused and completed
are terminal. Starting a running experiment is a no-op.

# Assignment races

Repositories must provide an insert-if-absent primitive on (experiment_id,
user_id). The loser of a first-assignment race re-reads the winner's row. When
the backing store cannot provide that primitive, configure a Locker to
serialize assignment per pair.

# Metrics

"exposure" is reserved. Conversion rate counts rows named exactly
"conversion"; the average covers every non-exposure row.
*/
package experiment
