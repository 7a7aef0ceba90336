// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"iter"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// DefaultChunkSize is the number of records fetched per store round-trip.
const DefaultChunkSize = 100

// ProgressFunc receives completion percentages in [0, 100]. Values never
// decrease within one search and the last value is always 100.
type ProgressFunc func(percent int)

// Executor runs a Spec against a RecordStore in fixed-size chunks.
type Executor struct {
	Store     query.RecordStore
	ChunkSize int
}

// Execute returns the lazy result sequence for spec. Nothing touches the
// store until the sequence is ranged over, and each range re-runs the search
// from the start. A store failure is yielded once as a *QueryExecutionError
// and ends the sequence. Breaking out of the range stops further fetches.
//
// A header row is emitted before the first detail row of every (paper, date)
// group. progress may be nil.
func (x *Executor) Execute(ctx context.Context, spec query.Spec, progress ProgressFunc) iter.Seq2[types.ResultRow, error] {
	chunk := x.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	return func(yield func(types.ResultRow, error) bool) {
		last := -1
		report := func(p int) {
			if p > 100 {
				p = 100
			}
			if progress != nil && p != last {
				progress(p)
			}
			last = p
		}

		total, err := x.Store.CountMatching(ctx, spec)
		if err != nil {
			yield(types.ResultRow{}, &QueryExecutionError{Op: "count", Err: err})
			return
		}
		if total == 0 {
			report(100)
			return
		}

		var (
			prev    types.GroupKey
			started bool
			emitted int
		)
		for offset := 0; offset < total; offset += chunk {
			if err := ctx.Err(); err != nil {
				yield(types.ResultRow{}, &QueryExecutionError{Op: "fetch", Offset: offset, Err: err})
				return
			}

			rows, err := x.Store.FetchPage(ctx, spec, chunk, offset)
			if err != nil {
				yield(types.ResultRow{}, &QueryExecutionError{Op: "fetch", Offset: offset, Err: err})
				return
			}

			for _, r := range rows {
				key := r.GroupKey()
				if !started || key != prev {
					if !yield(types.HeaderRow(r), nil) {
						return
					}
					prev, started = key, true
				}
				if !yield(types.DetailRow(r), nil) {
					return
				}
			}
			emitted += len(rows)

			if len(rows) < chunk {
				break
			}
			report(100 * emitted / total)
		}
		report(100)
	}
}
