// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultNATSImage is the NATS image used by integration tests.
const DefaultNATSImage = "nats:2.10-alpine"

const natsPort = "4222/tcp"

// NATSContainer is a running NATS server with JetStream enabled.
type NATSContainer struct {
	Container testcontainers.Container
	URL       string
}

// NewNATSContainer starts NATS with JetStream.
func NewNATSContainer(ctx context.Context) (*NATSContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        DefaultNATSImage,
			ExposedPorts: []string{natsPort},
			Cmd:          []string{"-js"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Server is ready"),
				wait.ForListeningPort(natsPort),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats container: %w", err)
	}

	addr, err := container.PortEndpoint(ctx, natsPort, "nats")
	if err != nil {
		terminateQuietly(ctx, container)
		return nil, fmt.Errorf("get nats endpoint: %w", err)
	}
	return &NATSContainer{Container: container, URL: addr}, nil
}
