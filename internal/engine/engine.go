// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs newspaper title searches. It combines the filter
// builder, the paginated executor, and the search history cache behind the
// interface presentation surfaces call.
package engine

import (
	"context"
	"fmt"
	"iter"

	"github.com/pdiddy/newspaper-search/internal/history"
	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// Engine is safe for concurrent searches. It holds no presentation state;
// every search is described entirely by its FilterInput.
type Engine struct {
	store   query.RecordStore
	builder *query.Builder
	exec    *Executor
	history *history.Cache
}

// New reads the store's year range once and returns an Engine. hist may be
// nil, in which case history calls are no-ops.
func New(ctx context.Context, store query.RecordStore, hist *history.Cache, cfg types.SearchConfig) (*Engine, error) {
	years, err := store.DistinctYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading year range: %w", err)
	}
	return &Engine{
		store:   store,
		builder: query.NewBuilder(years),
		exec:    &Executor{Store: store, ChunkSize: cfg.ChunkSize},
		history: hist,
	}, nil
}

// Prepare validates in without running a record query. Regex patterns are
// also checked against the store's pattern syntax.
func (e *Engine) Prepare(in query.FilterInput) (query.Spec, error) {
	spec, err := e.builder.Build(in)
	if err != nil {
		return query.Spec{}, err
	}
	if err := query.CheckPattern(e.store, spec); err != nil {
		return query.Spec{}, err
	}
	return spec, nil
}

// Run executes an already prepared Spec.
func (e *Engine) Run(ctx context.Context, spec query.Spec, progress ProgressFunc) iter.Seq2[types.ResultRow, error] {
	return e.exec.Execute(ctx, spec, progress)
}

// Search validates in and returns its lazy result sequence. Validation
// errors are returned before any store access.
func (e *Engine) Search(ctx context.Context, in query.FilterInput, progress ProgressFunc) (iter.Seq2[types.ResultRow, error], error) {
	spec, err := e.Prepare(in)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, spec, progress), nil
}

// Years returns the earliest and latest years in the store.
func (e *Engine) Years() (string, string) { return e.builder.Years() }

// Papers lists every paper name available for selection.
func (e *Engine) Papers(ctx context.Context) ([]string, error) {
	names, err := e.store.ListPaperNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	return names, nil
}

// History returns past queries, newest first.
func (e *Engine) History() []string {
	if e.history == nil {
		return nil
	}
	return e.history.List()
}

// RecordHistory remembers q for future sessions.
func (e *Engine) RecordHistory(ctx context.Context, q string) error {
	if e.history == nil {
		return nil
	}
	return e.history.Record(ctx, q)
}

// Collect drains seq into a slice. It returns the rows gathered before the
// first error along with that error.
func Collect(seq iter.Seq2[types.ResultRow, error]) ([]types.ResultRow, error) {
	var rows []types.ResultRow
	for row, err := range seq {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
