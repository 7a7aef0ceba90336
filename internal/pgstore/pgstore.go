// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pgstore implements the title store on PostgreSQL. It mirrors the
// SQLite schema and evaluates the same match modes natively: regular
// expressions are translated to PostgreSQL's syntax and run with ~.
package pgstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			paper_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS titles (
			id BIGSERIAL PRIMARY KEY,
			paper_id TEXT REFERENCES papers(paper_id),
			date TEXT,
			page INTEGER,
			title TEXT,
			url TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_titles_title ON titles(title)`,
		`CREATE INDEX IF NOT EXISTS idx_titles_date ON titles(date)`,
		`CREATE INDEX IF NOT EXISTS idx_titles_paper_id ON titles(paper_id)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			query TEXT PRIMARY KEY,
			searched_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

const fromJoin = `
	FROM titles t
	JOIN papers p ON t.paper_id = p.paper_id`

// whereClause renders spec with numbered placeholders. The paper set is
// bound as one text array. Regex patterns are translated from RE2 to the
// server's own syntax, so the same pattern selects the same titles on
// every backend.
func whereClause(spec query.Spec) (string, []any, error) {
	args := []any{spec.Papers, spec.DateFrom, spec.DateTo}
	where := ` WHERE p.paper_name = ANY($1) AND t.date >= $2 AND t.date <= $3`

	if spec.Text.IsEmpty() {
		return where, args, nil
	}

	n := strconv.Itoa(len(args) + 1)
	operand := spec.Text.Operand
	switch spec.Text.Mode {
	case query.Exact:
		where += ` AND t.title = $` + n
	case query.Regex:
		are, err := translatePattern(spec.Text.PatternString())
		if err != nil {
			return "", nil, &query.ValidationError{Field: "text", Msg: "invalid pattern", Err: err}
		}
		where += ` AND t.title ~ $` + n
		operand = are
	default:
		where += ` AND strpos(lower(t.title), lower($` + n + `)) > 0`
	}
	return where, append(args, operand), nil
}

func orderClause(order query.SortOrder) string {
	dir := "ASC"
	if order == query.Descending {
		dir = "DESC"
	}
	return ` ORDER BY t.date ` + dir + `, t.page ASC, t.id ASC`
}

// CountMatching returns the number of titles satisfying spec.
func (s *Store) CountMatching(ctx context.Context, spec query.Spec) (int, error) {
	where, args, err := whereClause(spec)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*)`+fromJoin+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return n, nil
}

// FetchPage returns one sorted chunk of matching titles.
func (s *Store) FetchPage(ctx context.Context, spec query.Spec, limit, offset int) ([]types.TitleRow, error) {
	where, args, err := whereClause(spec)
	if err != nil {
		return nil, err
	}
	n := len(args)
	stmt := `SELECT t.id, t.paper_id, coalesce(t.date, ''), coalesce(t.page, 0), coalesce(t.title, ''), coalesce(t.url, ''), p.paper_name` +
		fromJoin + where + orderClause(spec.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching page at offset %d: %w", offset, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.TitleRow, error) {
		var r types.TitleRow
		err := row.Scan(&r.ID, &r.PaperID, &r.Date, &r.Page, &r.Title, &r.URL, &r.PaperName)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning page at offset %d: %w", offset, err)
	}
	return out, nil
}

// DistinctYears returns the four-digit years present, ascending.
func (s *Store) DistinctYears(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT substr(date, 1, 4) AS year FROM titles
		WHERE date IS NOT NULL AND length(date) >= 4 ORDER BY year`)
}

// ListPaperNames returns every paper's display name in insertion order.
func (s *Store) ListPaperNames(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT paper_name FROM papers ORDER BY ctid`)
}

func (s *Store) column(ctx context.Context, stmt string) ([]string, error) {
	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// InsertBatch writes papers and titles in one transaction. Papers already
// present are left unchanged.
func (s *Store) InsertBatch(ctx context.Context, papers []types.Paper, titles []types.TitleRecord) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range papers {
			batch.Queue(`INSERT INTO papers (paper_id, paper_name) VALUES ($1, $2) ON CONFLICT (paper_id) DO NOTHING`,
				p.PaperID, p.PaperName)
		}
		for _, t := range titles {
			batch.Queue(`INSERT INTO titles (paper_id, date, page, title, url) VALUES ($1, $2, $3, $4, $5)`,
				t.PaperID, t.Date, t.Page, t.Title, t.URL)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting batch: %w", err)
		}
		return nil
	})
}

// LoadHistory returns up to limit entries, most recent first. A limit of
// zero or less returns every entry.
func (s *Store) LoadHistory(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	stmt := `SELECT query, searched_at FROM search_history ORDER BY searched_at DESC`
	var args []any
	if limit > 0 {
		stmt += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.HistoryEntry, error) {
		var e types.HistoryEntry
		err := row.Scan(&e.Query, &e.Timestamp)
		return e, err
	})
}

// InsertHistory stores one entry, replacing any earlier entry for the same query.
func (s *Store) InsertHistory(ctx context.Context, e types.HistoryEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_history (query, searched_at) VALUES ($1, $2)
		 ON CONFLICT (query) DO UPDATE SET searched_at = EXCLUDED.searched_at`,
		e.Query, e.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting history: %w", err)
	}
	return nil
}

// DeleteHistory removes the entry for q.
func (s *Store) DeleteHistory(ctx context.Context, q string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM search_history WHERE query = $1`, q); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}

// Describe returns a one-line summary of the pool target for logging.
func (s *Store) Describe() string {
	cfg := s.pool.Config().ConnConfig
	return strings.TrimSpace(fmt.Sprintf("postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.Database))
}
