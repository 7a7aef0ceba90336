// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import "fmt"

// QueryExecutionError reports a record store failure during a search. Rows
// yielded before the failure remain valid.
type QueryExecutionError struct {
	// Op is "count" or "fetch".
	Op     string
	Offset int
	Err    error
}

func (e *QueryExecutionError) Error() string {
	if e.Op == "fetch" {
		return fmt.Sprintf("search %s at offset %d: %v", e.Op, e.Offset, e.Err)
	}
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }
