// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a bounded, most-recent-first list of past search
// queries and persists it through a Backend so it survives restarts.
package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

// DefaultCapacity is the number of queries remembered.
const DefaultCapacity = 10

// Backend is durable storage for history entries.
type Backend interface {
	// LoadHistory returns up to limit entries, newest first. A limit of
	// zero or less returns every entry.
	LoadHistory(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	InsertHistory(ctx context.Context, entry types.HistoryEntry) error
	DeleteHistory(ctx context.Context, query string) error
}

// Cache is safe for concurrent use. Record calls are serialized so inserts
// and evictions have a single global order.
type Cache struct {
	mu       sync.Mutex
	backend  Backend
	capacity int
	entries  []types.HistoryEntry // newest first
	now      func() time.Time
}

// New loads the most recent entries from backend. Entries beyond capacity
// are deleted from the backend.
func New(ctx context.Context, backend Backend, capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	all, err := backend.LoadHistory(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("loading search history: %w", err)
	}

	c := &Cache{backend: backend, capacity: capacity, now: time.Now}
	if len(all) > capacity {
		for _, e := range all[capacity:] {
			if err := backend.DeleteHistory(ctx, e.Query); err != nil {
				return nil, fmt.Errorf("pruning search history: %w", err)
			}
		}
		all = all[:capacity]
	}
	c.entries = all
	return c, nil
}

// Record remembers q. Empty queries and queries already present are
// ignored; a repeated query keeps its original position.
func (c *Cache) Record(ctx context.Context, q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.Query == q {
			return nil
		}
	}

	entry := types.HistoryEntry{Query: q, Timestamp: c.nextTimestamp()}
	if err := c.backend.InsertHistory(ctx, entry); err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	c.entries = append([]types.HistoryEntry{entry}, c.entries...)

	if len(c.entries) > c.capacity {
		oldest := c.entries[len(c.entries)-1]
		c.entries = c.entries[:len(c.entries)-1]
		if err := c.backend.DeleteHistory(ctx, oldest.Query); err != nil {
			return fmt.Errorf("evicting search history: %w", err)
		}
	}
	return nil
}

// List returns remembered queries, newest first.
func (c *Cache) List() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Query
	}
	return out
}

// Entries returns remembered entries with timestamps, newest first.
func (c *Cache) Entries() []types.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.HistoryEntry(nil), c.entries...)
}

// nextTimestamp is strictly after the newest stored entry so ordering by
// timestamp matches insertion order even when the clock stalls.
func (c *Cache) nextTimestamp() time.Time {
	ts := c.now()
	if len(c.entries) > 0 && !ts.After(c.entries[0].Timestamp) {
		ts = c.entries[0].Timestamp.Add(time.Microsecond)
	}
	return ts
}
