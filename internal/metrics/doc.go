// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package metrics provides Prometheus instrumentation for the discovery core.

Collectors are package-level promauto variables registered on the default
registry and exposed by the admin router at /metrics:

	curl http://localhost:9470/metrics

# Available Metrics

Store:
  - marquee_store_query_duration_seconds{operation}
  - marquee_store_query_errors_total{operation, error_type}

Candidate generation:
  - marquee_candidates_duration_seconds{component}
  - marquee_candidates_returned{component}
  - marquee_candidates_errors_total{component}
  - marquee_mood_fallbacks_total{reason}

Experiments:
  - marquee_variant_assignments_total{outcome}
  - marquee_experiment_metric_writes_total{kind}
  - marquee_assignment_lock_wait_seconds{strategy}

Feedback ingestion:
  - marquee_feedback_events_total{topic, result}

Admin HTTP:
  - marquee_http_request_duration_seconds{method, route, status}

Callers use the Record* helpers rather than touching collectors directly.
*/
package metrics
