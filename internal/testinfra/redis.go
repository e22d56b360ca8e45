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

// DefaultRedisImage is the Redis image used by integration tests.
const DefaultRedisImage = "redis:7-alpine"

const redisPort = "6379/tcp"

// RedisContainer is a running Redis instance.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
}

// NewRedisContainer starts Redis.
func NewRedisContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        DefaultRedisImage,
			ExposedPorts: []string{redisPort},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready to accept connections"),
				wait.ForListeningPort(redisPort),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis container: %w", err)
	}

	addr, err := container.PortEndpoint(ctx, redisPort, "")
	if err != nil {
		terminateQuietly(ctx, container)
		return nil, fmt.Errorf("get redis endpoint: %w", err)
	}
	return &RedisContainer{Container: container, Addr: addr}, nil
}
