// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"regexp"
	"strings"
)

// MatchMode selects how the query text is compared against titles.
type MatchMode string

const (
	// Contains is a case-insensitive substring match. An empty operand
	// matches every title.
	Contains MatchMode = "contains"

	// Exact is case-sensitive equality against the whole title.
	Exact MatchMode = "exact"

	// WholeWord is a case-insensitive substring match of the query framed
	// by single spaces. Titles where the word sits at the very start or end
	// have no framing space and do not match.
	WholeWord MatchMode = "whole_word"

	// Regex is a case-insensitive regular expression match.
	Regex MatchMode = "regex"
)

// TextPredicate is the resolved text condition of a search.
type TextPredicate struct {
	Mode MatchMode `json:"mode" yaml:"mode"`

	// Operand is the value compared by the store: the unquoted title for
	// Exact, the space-framed word for WholeWord, the raw pattern for Regex.
	Operand string `json:"operand" yaml:"operand"`

	// Pattern is the compiled case-insensitive expression for Regex mode.
	Pattern *regexp.Regexp `json:"-" yaml:"-"`
}

// IsEmpty reports whether the predicate matches every title.
func (p TextPredicate) IsEmpty() bool {
	return p.Mode == "" || (p.Mode == Contains && p.Operand == "")
}

// PatternString returns the expression sent to stores that evaluate RE2
// syntax, including the case-insensitive flag.
func (p TextPredicate) PatternString() string {
	if p.Pattern != nil {
		return p.Pattern.String()
	}
	return "(?i)" + p.Operand
}

// Match evaluates the predicate in process. Stores evaluate the same
// semantics natively; Match is the reference behavior.
func (p TextPredicate) Match(title string) bool {
	switch p.Mode {
	case Exact:
		return title == p.Operand
	case Regex:
		if p.Pattern == nil {
			return false
		}
		return p.Pattern.MatchString(title)
	case WholeWord, Contains:
		return strings.Contains(strings.ToLower(title), strings.ToLower(p.Operand))
	default:
		return true
	}
}

// Resolve maps query text and mode flags to a TextPredicate. Precedence is
// regex, then whole word, then a quoted exact match, then contains. Resolve
// never touches a store.
func Resolve(q string, wholeWord, regex bool) (TextPredicate, error) {
	switch {
	case regex:
		re, err := regexp.Compile("(?i)" + q)
		if err != nil {
			return TextPredicate{}, &ValidationError{Field: "text", Msg: "invalid pattern", Err: err}
		}
		return TextPredicate{Mode: Regex, Operand: q, Pattern: re}, nil
	case wholeWord:
		return TextPredicate{Mode: WholeWord, Operand: " " + q + " "}, nil
	case isQuoted(q):
		return TextPredicate{Mode: Exact, Operand: q[1 : len(q)-1]}, nil
	default:
		return TextPredicate{Mode: Contains, Operand: q}, nil
	}
}

func isQuoted(q string) bool {
	return len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`)
}
