// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*CapabilityRefreshService)(nil)

type mockRefresher struct {
	mu      sync.Mutex
	calls   int
	results []error
	called  chan struct{}
}

func (m *mockRefresher) Refresh(ctx context.Context) (bool, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	var err error
	if i < len(m.results) {
		err = m.results[i]
	}
	m.mu.Unlock()

	select {
	case m.called <- struct{}{}:
	default:
	}
	return err == nil, err
}

func (m *mockRefresher) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCapabilityRefreshService_Defaults(t *testing.T) {
	svc := NewCapabilityRefreshService(&mockRefresher{}, 0, zerolog.Nop())
	if svc.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", svc.interval)
	}
	if svc.String() != "mood-capability-refresh" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestCapabilityRefreshService_RefreshesUntilCanceled(t *testing.T) {
	// The first check fails; the service keeps ticking.
	m := &mockRefresher{results: []error{errors.New("check timeout")}, called: make(chan struct{}, 16)}
	svc := NewCapabilityRefreshService(m, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-m.called:
		case <-time.After(2 * time.Second):
			t.Fatalf("refresh %d never happened", i+1)
		}
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if m.getCalls() < 3 {
		t.Errorf("calls = %d, want at least 3", m.getCalls())
	}
}
