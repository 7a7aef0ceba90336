// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pgstore

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newspaper-search/internal/history"
	"github.com/pdiddy/newspaper-search/internal/query"
)

var (
	_ query.RecordStore = (*Store)(nil)
	_ history.Backend   = (*Store)(nil)
)

func buildSpec(t *testing.T, text string, wholeWord, regex bool) query.Spec {
	t.Helper()
	spec, err := query.NewBuilder([]string{"1930", "1931"}).Build(query.FilterInput{
		Text:      text,
		WholeWord: wholeWord,
		Regex:     regex,
		Papers:    []string{"Daily", "Evening"},
	})
	require.NoError(t, err)
	return spec
}

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wholeWord bool
		regex     bool
		wantTail  string
		wantArg   any
	}{
		{"empty text adds no predicate", "", false, false, "t.date <= $3", nil},
		{"contains", "50%", false, false, "strpos(lower(t.title), lower($4)) > 0", "50%"},
		{"exact", `"Fire"`, false, false, "t.title = $4", "Fire"},
		{"whole word", "HK", true, false, "strpos(lower(t.title), lower($4)) > 0", " HK "},
		{"regex", "^hk", false, true, "t.title ~ $4", `^[Hh][Kk\u212A]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := whereClause(buildSpec(t, tt.text, tt.wholeWord, tt.regex))
			require.NoError(t, err)
			assert.Contains(t, where, "p.paper_name = ANY($1) AND t.date >= $2 AND t.date <= $3")
			assert.True(t, strings.HasSuffix(where, tt.wantTail), where)

			assert.Equal(t, []string{"Daily", "Evening"}, args[0])
			assert.Equal(t, "19300101", args[1])
			assert.Equal(t, "19311231", args[2])
			if tt.wantArg == nil {
				assert.Len(t, args, 3)
			} else {
				require.Len(t, args, 4)
				assert.Equal(t, tt.wantArg, args[3])
			}
		})
	}
}

func TestWhereClauseRejectsUntranslatablePattern(t *testing.T) {
	_, _, err := whereClause(buildSpec(t, "(?m)^hk$", false, true))
	assert.ErrorIs(t, err, query.ErrValidation)

	var ve *query.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "text", ve.Field)
}

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"plain literal", "fire", "fire"},
		{"folded literal", "(?i)fire", "[Ff][Ii][Rr][Ee]"},
		{"named group is non-capturing", "(?P<n>fire)", "(?:fire)"},
		{"word boundaries", `\bHK\b`, `\yHK\y`},
		{"lazy quantifier", "a+?", "(?:a)+"},
		{"digit class", `\d`, "[0-9]"},
		{"dot excludes newline", ".", `[^\u000A]`},
		{"dot with s flag", "(?s).", "."},
		{"anchors", "^a$", "^a$"},
		{"alternation", "fire|flood", "f(?:ire|lood)"},
		{"punctuation is escaped", "a-b", `a\u002Db`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := translatePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslatePatternUnicodeClass(t *testing.T) {
	got, err := translatePattern(`\pL+`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "(?:["), got)
	assert.True(t, strings.HasSuffix(got, "])+"), got)
	assert.NotContains(t, got, `\uD800`)
}

func TestTranslatePatternErrors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"syntax error", "a(b"},
		{"multi-line begin", "(?m)^hk"},
		{"multi-line end", "(?m)hk$"},
		{"empty class", `[^\x00-\x{10FFFF}]`},
		{"expansion too large", `(?:\pL{1000}){1000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := translatePattern(tt.pattern)
			assert.Error(t, err)
		})
	}
}

func TestCheckPatternSurfacesValidationError(t *testing.T) {
	s := &Store{}
	assert.NoError(t, query.CheckPattern(s, buildSpec(t, `\bhk\b`, false, true)))
	assert.NoError(t, query.CheckPattern(s, buildSpec(t, "(?m)^hk", false, false)))

	err := query.CheckPattern(s, buildSpec(t, "(?m)^hk", false, true))
	assert.ErrorIs(t, err, query.ErrValidation)
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, " ORDER BY t.date ASC, t.page ASC, t.id ASC", orderClause(query.Ascending))
	assert.Equal(t, " ORDER BY t.date DESC, t.page ASC, t.id ASC", orderClause(query.Descending))
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://reader@db.example:5433/titles")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := &Store{pool: pool}
	assert.Equal(t, "postgres db.example:5433/titles", s.Describe())
}

// TestRoundTrip runs against a live server when NEWSPAPER_SEARCH_TEST_POSTGRES is set.
func TestRoundTrip(t *testing.T) {
	dsn := os.Getenv("NEWSPAPER_SEARCH_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("NEWSPAPER_SEARCH_TEST_POSTGRES not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	names, err := s.ListPaperNames(ctx)
	require.NoError(t, err)
	if len(names) == 0 {
		t.Skip("postgres store has no papers")
	}
	spec, err := query.NewBuilder([]string{"1000", "9999"}).Build(query.FilterInput{Papers: names})
	require.NoError(t, err)

	total, err := s.CountMatching(ctx, spec)
	require.NoError(t, err)
	page, err := s.FetchPage(ctx, spec, 10, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page), min(total, 10))
}
