// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/validation"
)

// Publisher emits feedback events.
type Publisher struct {
	pub    message.Publisher
	topics Topics
	now    func() time.Time
}

// NewPublisher wraps a Watermill publisher. Empty topic names get defaults.
func NewPublisher(pub message.Publisher, topics Topics) *Publisher {
	return &Publisher{pub: pub, topics: topics.withDefaults(), now: time.Now}
}

// PublishExposure publishes an exposure event.
func (p *Publisher) PublishExposure(ctx context.Context, e ExposureEvent) error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return fmt.Errorf("invalid exposure event: %w", verr)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, p.topics.Exposure, e)
}

// PublishConversion publishes a conversion event.
func (p *Publisher) PublishConversion(ctx context.Context, e ConversionEvent) error {
	if verr := validation.ValidateStruct(e); verr != nil {
		return fmt.Errorf("invalid conversion event: %w", verr)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, p.topics.Conversion, e)
}

func (p *Publisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
