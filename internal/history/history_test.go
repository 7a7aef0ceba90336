// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newspaper-search/internal/query/querytest"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

func newCache(t *testing.T, backend Backend) *Cache {
	t.Helper()
	c, err := New(context.Background(), backend, DefaultCapacity)
	require.NoError(t, err)
	// A frozen clock exercises the monotonic timestamp bump.
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	return c
}

func TestRecordEvictsOldest(t *testing.T) {
	ctx := context.Background()
	mem := querytest.NewMemStore()
	c := newCache(t, mem)

	for i := 1; i <= 11; i++ {
		require.NoError(t, c.Record(ctx, fmt.Sprintf("q%d", i)))
	}

	want := []string{"q11", "q10", "q9", "q8", "q7", "q6", "q5", "q4", "q3", "q2"}
	assert.Equal(t, want, c.List())
	assert.Len(t, mem.History, 10, "backend holds the same bounded set")

	reloaded, err := New(ctx, mem, DefaultCapacity)
	require.NoError(t, err)
	assert.Equal(t, want, reloaded.List())
}

func TestRecordDuplicateIsNoop(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, querytest.NewMemStore())

	require.NoError(t, c.Record(ctx, "fire"))
	require.NoError(t, c.Record(ctx, "flood"))
	require.NoError(t, c.Record(ctx, "flood"))
	require.NoError(t, c.Record(ctx, "fire"))

	assert.Equal(t, []string{"flood", "fire"}, c.List())
}

func TestRecordIgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	mem := querytest.NewMemStore()
	c := newCache(t, mem)

	require.NoError(t, c.Record(ctx, ""))
	require.NoError(t, c.Record(ctx, "   "))
	assert.Empty(t, c.List())
	assert.Empty(t, mem.History)
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, querytest.NewMemStore())
	for _, q := range []string{"a", "b", "c"} {
		require.NoError(t, c.Record(ctx, q))
	}
	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
	assert.True(t, entries[1].Timestamp.After(entries[2].Timestamp))
}

func TestNewPrunesBeyondCapacity(t *testing.T) {
	mem := querytest.NewMemStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		mem.History = append(mem.History, types.HistoryEntry{
			Query:     fmt.Sprintf("q%02d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	c, err := New(context.Background(), mem, DefaultCapacity)
	require.NoError(t, err)
	list := c.List()
	require.Len(t, list, 10)
	assert.Equal(t, "q14", list[0])
	assert.Equal(t, "q05", list[9])
	assert.Len(t, mem.History, 10)
}

type failingBackend struct{ querytest.MemStore }

func (f *failingBackend) InsertHistory(context.Context, types.HistoryEntry) error {
	return errors.New("disk full")
}

func TestRecordBackendErrorLeavesCacheUnchanged(t *testing.T) {
	fb := &failingBackend{}
	c := newCache(t, fb)

	err := c.Record(context.Background(), "fire")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, c.List())
}

func TestRecordConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	mem := querytest.NewMemStore()
	c, err := New(ctx, mem, DefaultCapacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Record(ctx, fmt.Sprintf("q%d", i%20)))
		}(i)
	}
	wg.Wait()

	list := c.List()
	assert.Len(t, list, 10)
	seen := map[string]bool{}
	for _, q := range list {
		assert.False(t, seen[q], "duplicate %q", q)
		seen[q] = true
	}
	assert.Len(t, mem.History, 10)
}
