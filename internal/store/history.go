// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

// LoadHistory returns up to limit history entries, newest first. A limit of
// zero or less returns all entries.
func (s *Store) LoadHistory(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	stmt := `SELECT query, searched_at FROM search_history ORDER BY searched_at DESC`
	var args []any
	if limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var entries []types.HistoryEntry
	for rows.Next() {
		var (
			e     types.HistoryEntry
			nanos int64
		)
		if err := rows.Scan(&e.Query, &nanos); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.Timestamp = time.Unix(0, nanos)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertHistory stores one entry.
func (s *Store) InsertHistory(ctx context.Context, e types.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (query, searched_at) VALUES (?, ?)`,
		e.Query, e.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting history: %w", err)
	}
	return nil
}

// DeleteHistory removes the entry for q, if any.
func (s *Store) DeleteHistory(ctx context.Context, q string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE query = ?`, q); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}
