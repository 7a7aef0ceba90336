// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package querytest provides an in-memory RecordStore and history backend
// for tests of the engine and its presentation surfaces.
package querytest

import (
	"context"
	"sort"
	"sync"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// MemStore holds titles in a slice and evaluates Specs with query.Spec.Matches.
// It counts every call so tests can assert that validation never reaches it.
type MemStore struct {
	mu      sync.Mutex
	Rows    []types.TitleRow
	History []types.HistoryEntry

	// FetchErrAt makes FetchPage fail when called with this offset (-1 disables).
	FetchErrAt int
	FetchErr   error
	CountErr   error

	Counts  int
	Fetches int
	Offsets []int
}

// NewMemStore returns a store holding rows, assigning ids in order.
func NewMemStore(rows ...types.TitleRow) *MemStore {
	for i := range rows {
		if rows[i].ID == 0 {
			rows[i].ID = int64(i + 1)
		}
	}
	return &MemStore{Rows: rows, FetchErrAt: -1}
}

// Calls returns the number of record queries served.
func (m *MemStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counts + m.Fetches
}

func (m *MemStore) CountMatching(_ context.Context, spec query.Spec) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counts++
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return len(m.matching(spec)), nil
}

func (m *MemStore) FetchPage(_ context.Context, spec query.Spec, limit, offset int) ([]types.TitleRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fetches++
	m.Offsets = append(m.Offsets, offset)
	if m.FetchErr != nil && (m.FetchErrAt < 0 || m.FetchErrAt == offset) {
		return nil, m.FetchErr
	}
	rows := m.matching(spec)
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]types.TitleRow, end-offset)
	copy(out, rows[offset:end])
	return out, nil
}

func (m *MemStore) DistinctYears(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var years []string
	for _, r := range m.Rows {
		y := r.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Strings(years)
	return years, nil
}

func (m *MemStore) ListPaperNames(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var names []string
	for _, r := range m.Rows {
		if !seen[r.PaperName] {
			seen[r.PaperName] = true
			names = append(names, r.PaperName)
		}
	}
	return names, nil
}

// matching returns the rows satisfying spec in store sort order.
func (m *MemStore) matching(spec query.Spec) []types.TitleRow {
	var out []types.TitleRow
	for _, r := range m.Rows {
		if spec.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			if spec.Sort == query.Descending {
				return a.Date > b.Date
			}
			return a.Date < b.Date
		}
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		return a.ID < b.ID
	})
	return out
}

// LoadHistory returns up to limit entries, most recent first.
func (m *MemStore) LoadHistory(_ context.Context, limit int) ([]types.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]types.HistoryEntry(nil), m.History...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) InsertHistory(_ context.Context, e types.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.History = append(m.History, e)
	return nil
}

func (m *MemStore) DeleteHistory(_ context.Context, q string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.History[:0]
	for _, e := range m.History {
		if e.Query != q {
			kept = append(kept, e)
		}
	}
	m.History = kept
	return nil
}
