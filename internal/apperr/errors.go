// Package apperr defines the error values shared across the ingest and
// query components.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// DocumentExistsError is returned when ingesting a doc_id that is already
// stored. ChangedContent distinguishes "same bytes, nothing to do" from
// "different bytes, caller must decide whether to force-replace".
type DocumentExistsError struct {
	DocID          string
	ChangedContent bool
}

func (e *DocumentExistsError) Error() string {
	if e.ChangedContent {
		return fmt.Sprintf("document %q already exists with different content", e.DocID)
	}
	return fmt.Sprintf("document %q already exists with identical content", e.DocID)
}

// CollisionExhaustedError is returned when short-ID assignment failed for
// every nonce in the bounded attempt range.
type CollisionExhaustedError struct {
	FullID   string
	Attempts int
}

func (e *CollisionExhaustedError) Error() string {
	return fmt.Sprintf("short id for %s: no free code after %d attempts", e.FullID, e.Attempts)
}

// MalformedSpanError reports a graph invariant violation detected during
// ingest (overlapping sibling spans, child escaping its parent). It is a
// corruption bug: the ingest must abort rather than persist the graph.
type MalformedSpanError struct {
	DocID  string
	Detail string
}

func (e *MalformedSpanError) Error() string {
	return fmt.Sprintf("malformed span in document %q: %s", e.DocID, e.Detail)
}

// ScopeNotFoundError is returned when a search is asked to resolve a scope
// name that no collaborator registered.
type ScopeNotFoundError struct {
	Name string
}

func (e *ScopeNotFoundError) Error() string {
	return fmt.Sprintf("scope %q not found", e.Name)
}

// RateLimitedError is surfaced unchanged from an Embedder. RetryAfter is
// zero when the backend gave no hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("embedder rate limited, retry after %s", e.RetryAfter)
	}
	return "embedder rate limited"
}
