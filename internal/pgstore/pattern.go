// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pgstore

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"strings"
	"unicode"
)

// maxTranslatedLen bounds the ARE text produced from one pattern.
const maxTranslatedLen = 64 * 1024

var errNoMatch = errors.New("pattern can never match")

// CheckPattern reports whether pattern, in RE2 syntax, can be run by
// PostgreSQL with the same meaning.
func (s *Store) CheckPattern(pattern string) error {
	_, err := translatePattern(pattern)
	return err
}

// translatePattern rewrites an RE2 pattern as a PostgreSQL advanced regular
// expression for the case-sensitive ~ operator. Case folding is expanded
// into bracket expressions, classes into explicit code point ranges, and
// capture groups become non-capturing. Only whether a title matches is ever
// used, so quantifier greediness is dropped.
func translatePattern(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeARE(&b, re.Simplify()); err != nil {
		return "", err
	}
	if b.Len() > maxTranslatedLen {
		return "", fmt.Errorf("pattern expands to %d bytes, over the %d byte limit", b.Len(), maxTranslatedLen)
	}
	return b.String(), nil
}

func writeARE(b *strings.Builder, re *syntax.Regexp) error {
	switch re.Op {
	case syntax.OpEmptyMatch:
	case syntax.OpNoMatch:
		return errNoMatch
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			writeRune(b, r, re.Flags&syntax.FoldCase != 0)
		}
	case syntax.OpCharClass:
		return writeClass(b, re.Rune)
	case syntax.OpAnyCharNotNL:
		b.WriteString(`[^\u000A]`)
	case syntax.OpAnyChar:
		b.WriteString(`.`)
	case syntax.OpBeginText:
		b.WriteString(`^`)
	case syntax.OpEndText:
		b.WriteString(`$`)
	case syntax.OpBeginLine, syntax.OpEndLine:
		return fmt.Errorf("multi-line anchors are not supported")
	case syntax.OpWordBoundary:
		b.WriteString(`\y`)
	case syntax.OpNoWordBoundary:
		b.WriteString(`\Y`)
	case syntax.OpCapture:
		return writeGroup(b, re.Sub[0], "")
	case syntax.OpStar:
		return writeGroup(b, re.Sub[0], "*")
	case syntax.OpPlus:
		return writeGroup(b, re.Sub[0], "+")
	case syntax.OpQuest:
		return writeGroup(b, re.Sub[0], "?")
	case syntax.OpRepeat:
		if re.Max > 255 || re.Min > 255 {
			return fmt.Errorf("repeat count over 255")
		}
		q := fmt.Sprintf("{%d,}", re.Min)
		if re.Max >= 0 {
			q = fmt.Sprintf("{%d,%d}", re.Min, re.Max)
		}
		return writeGroup(b, re.Sub[0], q)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if err := writeARE(b, sub); err != nil {
				return err
			}
		}
	case syntax.OpAlternate:
		b.WriteString(`(?:`)
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteByte('|')
			}
			if err := writeARE(b, sub); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	default:
		return fmt.Errorf("unsupported construct %s", re)
	}
	return nil
}

func writeGroup(b *strings.Builder, sub *syntax.Regexp, quantifier string) error {
	b.WriteString(`(?:`)
	if err := writeARE(b, sub); err != nil {
		return err
	}
	b.WriteByte(')')
	b.WriteString(quantifier)
	return nil
}

// writeRune emits r, or a bracket of all its case variants when fold is set.
func writeRune(b *strings.Builder, r rune, fold bool) {
	if !fold || unicode.SimpleFold(r) == r {
		b.WriteString(escapeRune(r))
		return
	}
	b.WriteByte('[')
	for f := r; ; {
		b.WriteString(escapeRune(f))
		if f = unicode.SimpleFold(f); f == r {
			break
		}
	}
	b.WriteByte(']')
}

// writeClass emits RE2's sorted lo-hi pairs as one bracket expression.
// Text columns cannot hold NUL, and surrogates are not characters, so both
// are clipped from the ranges.
func writeClass(b *strings.Builder, ranges []rune) error {
	var body strings.Builder
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if lo == 0 {
			lo = 1
		}
		for _, part := range splitSurrogates(lo, hi) {
			body.WriteString(escapeRune(part[0]))
			if part[1] > part[0] {
				body.WriteByte('-')
				body.WriteString(escapeRune(part[1]))
			}
		}
	}
	if body.Len() == 0 {
		return errNoMatch
	}
	b.WriteByte('[')
	b.WriteString(body.String())
	b.WriteByte(']')
	return nil
}

func splitSurrogates(lo, hi rune) [][2]rune {
	const surLo, surHi = 0xD800, 0xDFFF
	var out [][2]rune
	if lo < surLo {
		out = append(out, [2]rune{lo, min(hi, surLo-1)})
	}
	if hi > surHi {
		out = append(out, [2]rune{max(lo, surHi+1), hi})
	}
	return out
}

// escapeRune writes ASCII letters and digits as-is and every other
// character as a fixed-width \u or \U escape, valid inside and outside
// bracket expressions.
func escapeRune(r rune) string {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return string(r)
	case r <= 0xFFFF:
		return fmt.Sprintf(`\u%04X`, r)
	default:
		return fmt.Sprintf(`\U%08X`, r)
	}
}
