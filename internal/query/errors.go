// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("query: validation failed")

// ValidationError reports a filter that cannot be executed. It is always
// returned before the record store is touched.
type ValidationError struct {
	// Field names the offending input (e.g. "papers", "date_from", "text").
	Field string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Unwrap exposes the underlying cause, such as a regexp syntax error.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}
