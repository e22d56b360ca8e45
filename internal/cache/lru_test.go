// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// a becomes most recently used, so b is the eviction victim
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
}

func TestLRU_TTLExpiration(t *testing.T) {
	c := NewLRU[string, int](10, 50*time.Millisecond)
	c.Add("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)

	if !c.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if _, ok := c.Get("a"); ok {
		t.Error("a still present after Remove")
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := NewLRU[string, int](10, 50*time.Millisecond)
	c.Add("a", 1)
	c.Add("b", 2)

	time.Sleep(60 * time.Millisecond)
	c.Add("c", 3)

	if removed := c.CleanupExpired(); removed != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_UpdateExisting(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10)
	c.Add("c", 3)

	if v, ok := c.Get("a"); !ok || v != 10 {
		t.Errorf("Get(a) = %d, %v; want 10, true", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted after a was refreshed")
	}
}

func TestLRU_Defaults(t *testing.T) {
	c := NewLRU[int, int](0, 0)
	if c.capacity != 10000 || c.ttl != 5*time.Minute {
		t.Errorf("defaults = %d, %v", c.capacity, c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](100, time.Minute)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := strconv.Itoa((g*500 + i) % 200)
				c.Add(key, i)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

func BenchmarkLRU_Add(b *testing.B) {
	c := NewLRU[int, int](10000, time.Minute)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Add(i%20000, i)
	}
}

func BenchmarkLRU_Get(b *testing.B) {
	c := NewLRU[int, int](10000, time.Minute)
	for i := range 10000 {
		c.Add(i, i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(i % 10000)
	}
}
