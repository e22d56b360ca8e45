// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package services provides suture.Service wrappers for Marquee components.

Each wrapper translates a component lifecycle (ListenAndServe, Run/Close, a
periodic task) into suture's context-aware Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTPServerService:
  - Wraps *http.Server with graceful shutdown
  - Converts http.ErrServerClosed to a clean return

FeedbackService:
  - Runs the feedback consumer's Watermill router
  - Closes the router on shutdown so in-flight handlers finish

CapabilityRefreshService:
  - Re-checks the mood tag table on an interval
  - Check failures are logged and retried on the next tick

Every wrapper implements fmt.Stringer so suture logs a readable name.
*/
package services
