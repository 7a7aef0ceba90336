// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/newspaper-search/internal/query"
	"github.com/pdiddy/newspaper-search/pkg/types"
)

const fromJoin = `
	FROM titles t
	JOIN papers p ON t.paper_id = p.paper_id`

// whereClause renders spec as a WHERE clause. Conjuncts appear in the order
// papers, lower date, upper date, text.
func whereClause(spec query.Spec) (string, []any) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(` WHERE p.paper_name IN (`)
	for i, name := range spec.Papers {
		if i > 0 {
			qb.WriteString(`, `)
		}
		qb.WriteString(`?`)
		args = append(args, name)
	}
	qb.WriteString(`)`)

	qb.WriteString(` AND t.date >= ?`)
	args = append(args, spec.DateFrom)
	qb.WriteString(` AND t.date <= ?`)
	args = append(args, spec.DateTo)

	if !spec.Text.IsEmpty() {
		switch spec.Text.Mode {
		case query.Exact:
			qb.WriteString(` AND t.title = ?`)
			args = append(args, spec.Text.Operand)
		case query.Regex:
			qb.WriteString(` AND t.title REGEXP ?`)
			args = append(args, spec.Text.PatternString())
		default:
			// instr keeps % and _ in the query literal, unlike LIKE.
			qb.WriteString(` AND instr(fold(t.title), fold(?)) > 0`)
			args = append(args, spec.Text.Operand)
		}
	}

	return qb.String(), args
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
	where, args := whereClause(spec)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*)`+fromJoin+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return n, nil
}

// FetchPage returns one sorted chunk of matching titles.
func (s *Store) FetchPage(ctx context.Context, spec query.Spec, limit, offset int) ([]types.TitleRow, error) {
	where, args := whereClause(spec)
	stmt := `SELECT t.id, t.paper_id, p.paper_name, t.date, t.page, t.title, t.url` +
		fromJoin + where + orderClause(spec.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying titles: %w", err)
	}
	defer rows.Close()

	out := make([]types.TitleRow, 0, limit)
	for rows.Next() {
		var (
			r     types.TitleRow
			title sql.NullString
			url   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.PaperID, &r.PaperName, &r.Date, &r.Page, &title, &url); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Title, r.URL = title.String, url.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctYears returns the four-digit years present in titles, ascending.
func (s *Store) DistinctYears(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT substr(date, 1, 4) AS y FROM titles WHERE date IS NOT NULL ORDER BY y`)
}

// ListPaperNames returns paper display names in insertion order.
func (s *Store) ListPaperNames(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT paper_name FROM papers ORDER BY rowid`)
}

func (s *Store) column(ctx context.Context, stmt string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
