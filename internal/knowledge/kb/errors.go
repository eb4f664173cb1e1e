package kb

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by Query while the knowledge base is still
// building or failed to build.
var ErrNotReady = errors.New("knowledge base is not ready")

// QueryErrorKind separates queries the engine could not read from queries
// that failed while running. Callers map the two to different diagnostics.
type QueryErrorKind string

const (
	KindSyntax    QueryErrorKind = "syntax"
	KindExecution QueryErrorKind = "execution"
)

// QueryError wraps an engine failure together with the offending query text,
// so the rendered query can be logged next to the cause.
type QueryError struct {
	Kind  QueryErrorKind
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s error: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
