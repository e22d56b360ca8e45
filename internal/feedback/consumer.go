// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/experiment"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/validation"
)

// Recorder is the experiment service surface the consumer writes to.
type Recorder interface {
	RecordExposure(ctx context.Context, experimentID, variantID, userID uuid.UUID) error
	RecordConversion(ctx context.Context, experimentID, variantID, userID uuid.UUID, name string, value float64) error
}

var _ Recorder = (*experiment.Service)(nil)

// ConsumerConfig tunes the consumer router.
type ConsumerConfig struct {
	Topics Topics

	// CloseTimeout bounds how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topics:               DefaultTopics(),
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     30 * time.Second,
	}
}

// Consumer routes feedback events into a Recorder.
type Consumer struct {
	router   *message.Router
	recorder Recorder
	topics   Topics
	logger   zerolog.Logger
}

// NewConsumer builds a router subscribed to the exposure and conversion
// topics. poison may be nil, in which case exhausted messages are nacked.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewConsumer(
	cfg ConsumerConfig,
	sub message.Subscriber,
	poison message.Publisher,
	recorder Recorder,
	wmLogger watermill.LoggerAdapter,
	logger zerolog.Logger,
) (*Consumer, error) {
	if sub == nil || recorder == nil {
		return nil, fmt.Errorf("feedback consumer requires a subscriber and a recorder")
	}
	if wmLogger == nil {
		wmLogger = NewLogger()
	}
	cfg.Topics = cfg.Topics.withDefaults()

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Middleware wraps outermost first.
	if poison != nil {
		pq, err := middleware.PoisonQueue(poison, cfg.Topics.PoisonQueue)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		router.AddMiddleware(pq)
	}
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          wmLogger,
	}
	router.AddMiddleware(retry.Middleware, middleware.Recoverer)

	c := &Consumer{
		router:   router,
		recorder: recorder,
		topics:   cfg.Topics,
		logger:   logger.With().Str("component", "feedback").Logger(),
	}
	router.AddConsumerHandler("exposure", cfg.Topics.Exposure, sub, c.handleExposure)
	router.AddConsumerHandler("conversion", cfg.Topics.Conversion, sub, c.handleConversion)
	return c, nil
}

// Run blocks until ctx is canceled or the router fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (c *Consumer) Running() <-chan struct{} {
	return c.router.Running()
}

// Close stops the router, waiting up to the close timeout.
func (c *Consumer) Close() error {
	return c.router.Close()
}

func (c *Consumer) handleExposure(msg *message.Message) error {
	var e ExposureEvent
	if !c.decode(c.topics.Exposure, msg, &e) {
		return nil
	}
	err := c.recorder.RecordExposure(c.messageContext(msg), e.ExperimentID, e.VariantID, e.UserID)
	return c.finish(c.topics.Exposure, msg, err)
}

func (c *Consumer) handleConversion(msg *message.Message) error {
	var e ConversionEvent
	if !c.decode(c.topics.Conversion, msg, &e) {
		return nil
	}
	err := c.recorder.RecordConversion(c.messageContext(msg), e.ExperimentID, e.VariantID, e.UserID, e.MetricName, e.MetricValue)
	return c.finish(c.topics.Conversion, msg, err)
}

// decode reports whether the payload is a valid event. Invalid payloads are
// logged and counted; the caller acks them.
func (c *Consumer) decode(topic string, msg *message.Message, dst interface{}) bool {
	err := json.Unmarshal(msg.Payload, dst)
	if err == nil {
		if verr := validation.ValidateStruct(dst); verr != nil {
			err = verr
		}
	}
	if err != nil {
		c.logger.Warn().Err(err).
			Str("topic", topic).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed feedback event")
		metrics.RecordFeedbackEvent(topic, ResultMalformed)
		return false
	}
	return true
}

// finish classifies a recorder error. Rejections are permanent and acked;
// anything else is returned for retry.
func (c *Consumer) finish(topic string, msg *message.Message, err error) error {
	switch {
	case err == nil:
		metrics.RecordFeedbackEvent(topic, ResultRecorded)
		return nil
	case errors.Is(err, experiment.ErrInvalidInput), errors.Is(err, experiment.ErrReservedMetric):
		c.logger.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("Dropping rejected feedback event")
		metrics.RecordFeedbackEvent(topic, ResultRejected)
		return nil
	default:
		metrics.RecordFeedbackEvent(topic, ResultFailed)
		return err
	}
}

func (c *Consumer) messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := msg.Metadata.Get("correlation_id"); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return ctx
}
