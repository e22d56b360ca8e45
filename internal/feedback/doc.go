// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package feedback carries exposure and conversion events from the
orchestrator into the experimentation service.

The orchestrator publishes ExposureEvent and ConversionEvent messages with a
Publisher. A Consumer runs a Watermill router that decodes each message and
calls experiment.Service.RecordExposure or RecordConversion.

# Transports

  - gochannel: in-process, for single-binary deployments and tests
  - nats: JetStream via watermill-nats, for multi-instance deployments

# Failure Handling

Router middleware, outermost first:

 1. PoisonQueue: messages that still fail after retries go to the poison topic
 2. Retry: exponential backoff for transient storage errors
 3. Recoverer: handler panics become errors

Malformed payloads and events the service rejects as invalid are acked and
counted, never retried. Every outcome is counted in
marquee_feedback_events_total by topic and result.
*/
package feedback
