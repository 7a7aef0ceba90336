// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns user-supplied search filters into a store-independent
// Spec. It validates every input up front so a Spec handed to a RecordStore
// is always executable.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/newspaper-search/pkg/types"
)

// SortOrder is the direction of the primary date sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts "asc", "desc", or empty (ascending).
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", invalid("sort", fmt.Sprintf("unknown sort order %q", s))
	}
}

// YearMonth is one end of a date range. Either part may be empty.
type YearMonth struct {
	Year  string `json:"year,omitempty" yaml:"year,omitempty"`
	Month string `json:"month,omitempty" yaml:"month,omitempty"`
}

// FilterInput is the raw filter collected by a presentation surface.
type FilterInput struct {
	Text      string    `json:"text,omitempty" yaml:"text,omitempty"`
	WholeWord bool      `json:"whole_word,omitempty" yaml:"whole_word,omitempty"`
	Regex     bool      `json:"regex,omitempty" yaml:"regex,omitempty"`
	From      YearMonth `json:"from" yaml:"from"`
	To        YearMonth `json:"to" yaml:"to"`
	Papers    []string  `json:"papers" yaml:"papers"`
	Sort      SortOrder `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// Spec is a validated, canonical search. Dates are eight-character strings
// compared lexicographically; they are never parsed as calendar dates.
type Spec struct {
	Papers   []string      `json:"papers" yaml:"papers"`
	DateFrom string        `json:"date_from" yaml:"date_from"`
	DateTo   string        `json:"date_to" yaml:"date_to"`
	Text     TextPredicate `json:"text" yaml:"text"`
	Sort     SortOrder     `json:"sort" yaml:"sort"`
}

// Matches evaluates the whole conjunction against one row, in the same
// order stores apply it: papers, lower bound, upper bound, text.
func (s Spec) Matches(row types.TitleRow) bool {
	found := false
	for _, p := range s.Papers {
		if p == row.PaperName {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if row.Date < s.DateFrom || row.Date > s.DateTo {
		return false
	}
	return s.Text.Match(row.Title)
}

// RecordStore is the read side of the title store consumed by the engine.
type RecordStore interface {
	// CountMatching returns the number of titles satisfying spec.
	CountMatching(ctx context.Context, spec Spec) (int, error)

	// FetchPage returns up to limit rows starting at offset, ordered by
	// date in spec.Sort direction, then page and id ascending.
	FetchPage(ctx context.Context, spec Spec, limit, offset int) ([]types.TitleRow, error)

	// DistinctYears returns the set of four-digit years present, ascending.
	DistinctYears(ctx context.Context) ([]string, error)

	// ListPaperNames returns every paper's display name.
	ListPaperNames(ctx context.Context) ([]string, error)
}

// PatternChecker is implemented by stores whose regular expression engine
// is not RE2. CheckPattern receives the full pattern, flags included, and
// reports syntax the store cannot run with the same meaning.
type PatternChecker interface {
	CheckPattern(pattern string) error
}

// CheckPattern validates a regex Spec against store when store is a
// PatternChecker. A rejected pattern is a ValidationError, returned without
// running any record query.
func CheckPattern(store RecordStore, spec Spec) error {
	pc, ok := store.(PatternChecker)
	if !ok || spec.Text.Mode != Regex {
		return nil
	}
	if err := pc.CheckPattern(spec.Text.PatternString()); err != nil {
		return &ValidationError{Field: "text", Msg: "invalid pattern", Err: err}
	}
	return nil
}

// Builder builds Specs. It holds the year bounds of the store, captured
// once at startup.
type Builder struct {
	minYear string
	maxYear string
}

// NewBuilder captures the earliest and latest of years as the defaults for
// open date bounds.
func NewBuilder(years []string) *Builder {
	var valid []string
	for _, y := range years {
		if isDigits(y, 4) {
			valid = append(valid, y)
		}
	}
	if len(valid) == 0 {
		return &Builder{}
	}
	sort.Strings(valid)
	return &Builder{minYear: valid[0], maxYear: valid[len(valid)-1]}
}

// Years returns the default lower and upper years. Both are empty when the
// store held no dated records.
func (b *Builder) Years() (string, string) { return b.minYear, b.maxYear }

// Build validates in and produces a Spec. It performs no store access.
func (b *Builder) Build(in FilterInput) (Spec, error) {
	papers := dedupe(in.Papers)
	if len(papers) == 0 {
		return Spec{}, invalid("papers", "select at least one newspaper")
	}

	from, err := b.bound("date_from", in.From, b.minYear, "01", "01")
	if err != nil {
		return Spec{}, err
	}
	to, err := b.bound("date_to", in.To, b.maxYear, "12", "31")
	if err != nil {
		return Spec{}, err
	}

	text, err := Resolve(strings.TrimSpace(in.Text), in.WholeWord, in.Regex)
	if err != nil {
		return Spec{}, err
	}

	order := in.Sort
	if order == "" {
		order = Ascending
	}
	if order != Ascending && order != Descending {
		return Spec{}, invalid("sort", fmt.Sprintf("unknown sort order %q", order))
	}

	return Spec{
		Papers:   papers,
		DateFrom: from,
		DateTo:   to,
		Text:     text,
		Sort:     order,
	}, nil
}

// bound pads a year/month pair to eight characters. The padded day is not
// checked against the month, so 20230231 is a valid upper bound.
func (b *Builder) bound(field string, ym YearMonth, defaultYear, defaultMonth, day string) (string, error) {
	year := strings.TrimSpace(ym.Year)
	month := strings.TrimSpace(ym.Month)

	if year == "" {
		if defaultYear == "" {
			return "", invalid(field, "no year given and the store has no dated records")
		}
		year = defaultYear
	}
	if !isDigits(year, 4) {
		return "", invalid(field, fmt.Sprintf("year %q must be four digits", year))
	}

	if month == "" {
		month = defaultMonth
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if !isDigits(month, 2) || month < "01" || month > "12" {
		return "", invalid(field, fmt.Sprintf("month %q must be 01-12", ym.Month))
	}

	return year + month + day, nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
