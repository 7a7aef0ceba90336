// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists papers, title records, and search history in a
// SQLite database and answers the engine's record queries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "newspapers.db"

// driverName is go-sqlite3 with two functions installed on every
// connection: REGEXP, so `title REGEXP ?` is evaluated inside SQLite, and
// fold, a Unicode-aware lower() for case-insensitive substring matches.
const driverName = "sqlite3_newspaper"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("regexp", matchRegexp, true); err != nil {
				return err
			}
			return conn.RegisterFunc("fold", foldCase, true)
		},
	})
}

// patternCacheSize bounds the compiled patterns kept across queries.
const patternCacheSize = 128

var patterns = struct {
	sync.Mutex
	lru *lru.Cache
}{lru: lru.New(patternCacheSize)}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patterns.Lock()
	defer patterns.Unlock()
	if re, ok := patterns.lru.Get(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.lru.Add(pattern, re)
	return re, nil
}

// matchRegexp backs the REGEXP operator: X REGEXP Y calls regexp(Y, X). A
// NULL title never matches.
func matchRegexp(pattern string, v any) (bool, error) {
	s, ok := textValue(v)
	if !ok {
		return false, nil
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// foldCase lowers v with Unicode case mapping. NULL folds to the empty string.
func foldCase(v any) string {
	s, _ := textValue(v)
	return strings.ToLower(s)
}

func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

// Store manages the newspaper SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Describe returns a one-line summary of the database for logging.
func (s *Store) Describe() string { return "sqlite " + s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			paper_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS titles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
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
			searched_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// InsertBatch writes papers and titles in one transaction. Papers already
// present are left unchanged. Title ids are assigned by the database.
func (s *Store) InsertBatch(ctx context.Context, papers []types.Paper, titles []types.TitleRecord) error {
	return s.insert(ctx, papers, titles, false)
}

func (s *Store) insert(ctx context.Context, papers []types.Paper, titles []types.TitleRecord, keepIDs bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO papers (paper_id, paper_name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	for _, p := range papers {
		if _, err := paperStmt.ExecContext(ctx, p.PaperID, p.PaperName); err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.PaperID, err)
		}
	}

	insertSQL := `INSERT INTO titles (paper_id, date, page, title, url) VALUES (?, ?, ?, ?, ?)`
	if keepIDs {
		insertSQL = `INSERT INTO titles (id, paper_id, date, page, title, url) VALUES (?, ?, ?, ?, ?, ?)`
	}
	titleStmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing title insert: %w", err)
	}
	defer titleStmt.Close()

	for _, t := range titles {
		args := []any{t.PaperID, t.Date, t.Page, t.Title, t.URL}
		if keepIDs {
			args = append([]any{t.ID}, args...)
		}
		if _, err := titleStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting title for %s %s: %w", t.PaperID, t.Date, err)
		}
	}

	return tx.Commit()
}

// Papers returns every paper ordered by id.
func (s *Store) Papers(ctx context.Context) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT paper_id, paper_name FROM papers ORDER BY paper_id`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var p types.Paper
		if err := rows.Scan(&p.PaperID, &p.PaperName); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// CountTitles returns the number of title records.
func (s *Store) CountTitles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting titles: %w", err)
	}
	return n, nil
}

// EachTitle calls fn for every title in date then id order, stopping at the
// first error.
func (s *Store) EachTitle(ctx context.Context, fn func(types.TitleRecord) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, paper_id, date, page, title, url FROM titles ORDER BY date, id`)
	if err != nil {
		return fmt.Errorf("reading titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t     types.TitleRecord
			title sql.NullString
			url   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.PaperID, &t.Date, &t.Page, &title, &url); err != nil {
			return fmt.Errorf("scanning title: %w", err)
		}
		t.Title, t.URL = title.String, url.String
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}
