// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package cache

import (
	"sync"

	"github.com/tomtom215/cargomap/internal/geo"
	"github.com/tomtom215/cargomap/internal/metrics"
)

// journeyKey scopes a projection to the snapshot it was computed from, so a
// refresh implicitly invalidates every entry.
type journeyKey struct {
	generation string
	id         int64
}

type journeyEntry struct {
	key     journeyKey
	journey geo.Journey
	prev    *journeyEntry
	next    *journeyEntry
}

// JourneyCache is a fixed-capacity LRU of computed journeys.
//
// Entries live in a doubly-linked list with sentinel head and tail; head.next
// is the most recently used. Get, Add and eviction are O(1).
type JourneyCache struct {
	mu       sync.Mutex
	capacity int
	items    map[journeyKey]*journeyEntry
	head     *journeyEntry
	tail     *journeyEntry

	hits   int64
	misses int64
}

// NewJourneyCache creates a cache holding at most capacity journeys.
func NewJourneyCache(capacity int) *JourneyCache {
	if capacity <= 0 {
		capacity = 1024
	}
	c := &JourneyCache{
		capacity: capacity,
		items:    make(map[journeyKey]*journeyEntry, capacity),
		head:     &journeyEntry{},
		tail:     &journeyEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the journey for container id in the given snapshot generation.
func (c *JourneyCache) Get(generation string, id int64) (geo.Journey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[journeyKey{generation, id}]; ok {
		c.moveToFront(e)
		c.hits++
		metrics.JourneyCacheLookups.WithLabelValues("hit").Inc()
		return e.journey, true
	}
	c.misses++
	metrics.JourneyCacheLookups.WithLabelValues("miss").Inc()
	return geo.Journey{}, false
}

// Add stores j, evicting the least recently used entry when full.
func (c *JourneyCache) Add(generation string, id int64, j geo.Journey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := journeyKey{generation, id}
	if e, ok := c.items[key]; ok {
		e.journey = j
		c.moveToFront(e)
		return
	}

	e := &journeyEntry{key: key, journey: j}
	c.addToFront(e)
	c.items[key] = e
	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// GetOrCompute returns the cached journey or computes and stores it.
func (c *JourneyCache) GetOrCompute(generation string, id int64, compute func() geo.Journey) geo.Journey {
	if j, ok := c.Get(generation, id); ok {
		return j
	}
	j := compute()
	c.Add(generation, id, j)
	return j
}

// Len returns the number of cached journeys.
func (c *JourneyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts.
func (c *JourneyCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Internal methods (must be called with lock held)

func (c *JourneyCache) addToFront(e *journeyEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *JourneyCache) moveToFront(e *journeyEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *JourneyCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	oldest.prev.next = oldest.next
	oldest.next.prev = oldest.prev
	delete(c.items, oldest.key)
}
