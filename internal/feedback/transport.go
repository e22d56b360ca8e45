// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package feedback

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
)

// Transport is a publisher and subscriber pair on one broker.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closers    []func() error
}

// Close closes the subscriber and publisher.
func (t *Transport) Close() error {
	var errs []error
	for _, c := range t.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLogger returns the Watermill logger adapter used by this package.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger("feedback"))
}

// NewTransport builds the transport named by cfg.Transport.
func NewTransport(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Transport {
	case "", config.TransportGoChannel:
		return NewGoChannelTransport(logger), nil
	case config.TransportNATS:
		return NewNATSTransport(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported events transport %q", cfg.Transport)
	}
}

// NewGoChannelTransport creates an in-process transport. Messages published
// before a subscriber exists are dropped.
func NewGoChannelTransport(logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return &Transport{
		Publisher:  ch,
		Subscriber: ch,
		closers:    []func() error{ch.Close},
	}
}

// NewNATSTransport creates a JetStream transport. Streams are provisioned on
// first use and consumers share a durable queue group.
func NewNATSTransport(cfg *config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("marquee-feedback"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
				natsgo.AckExplicit(),
			},
			DurablePrefix: cfg.QueueGroup,
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	return &Transport{
		Publisher:  pub,
		Subscriber: sub,
		closers:    []func() error{sub.Close, pub.Close},
	}, nil
}
