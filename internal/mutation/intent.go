// Package mutation runs state-changing requests against the catalog API with
// bounded retries and, for delete and create, a verification read after a
// transport failure whose server-side effect is unknown.
package mutation

import (
	"fmt"

	"github.com/blackwell-systems/shelfview/internal/api"
	"github.com/blackwell-systems/shelfview/internal/catalog"
)

// Op is a state-changing operation.
type Op string

const (
	OpAddToLibrary      Op = "add-to-library"
	OpRemoveFromLibrary Op = "remove-from-library"
	OpDelete            Op = "delete"
	OpCreate            Op = "create"
)

// verifiable reports whether an ambiguous failure of op is resolved by a
// follow-up read.
func (o Op) verifiable() bool {
	return o == OpDelete || o == OpCreate
}

// Intent is a single user action tracked through retry and verification.
type Intent struct {
	Op     Op
	BookID int64
	// Book holds the fields for OpCreate.
	Book *api.NewBook
	// Generation is the collection generation observed when the action was
	// started. Narrow writes are dropped if the collection has been replaced
	// since.
	Generation uint64
}

func (i Intent) String() string {
	if i.Op == OpCreate && i.Book != nil {
		return fmt.Sprintf("%s %q", i.Op, i.Book.Title)
	}
	return fmt.Sprintf("%s #%d", i.Op, i.BookID)
}

// State is a step of an intent's lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateSent         State = "sent"
	StateSuccess      State = "success"
	StateAlreadyDone  State = "already-done"
	StateServerError  State = "server-error"
	StateNetworkError State = "network-error"
	StateVerifying    State = "verifying"
	StateRetryPending State = "retry-pending"
	StateTerminal     State = "terminal"
)

// Outcome is the single terminal result reported for an intent.
type Outcome int

const (
	// Success means the server applied the change, either directly or as
	// confirmed by a verification read.
	Success Outcome = iota
	// AlreadyDone is an informational conflict: the book was already in (or
	// absent from) the library, or already deleted.
	AlreadyDone
	// Failed means retries were exhausted on server or network errors and
	// nothing confirmed the change.
	Failed
	// Rejected is a definitive refusal: validation, auth, not-found or an
	// unreadable response. Never retried.
	Rejected
	// Canceled means the context ended before a terminal answer. No local
	// state was touched.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AlreadyDone:
		return "already-done"
	case Failed:
		return "failed"
	case Rejected:
		return "rejected"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the terminal report for an intent.
type Result struct {
	Intent  Intent
	Outcome Outcome
	// Err is the last error seen; nil on Success.
	Err error
	// Verified is set when success was inferred by a follow-up read.
	Verified bool
	// Attempts counts requests sent. Retries is Attempts-1 when at least one
	// request went out.
	Attempts int
	Retries  int
	// Created is the book returned (or found by verification) for OpCreate.
	Created *catalog.Book
	Message string
	Trace   []State
}

// OK reports whether the result leaves the server in the intended state.
func (r Result) OK() bool {
	return r.Outcome == Success || r.Outcome == AlreadyDone
}
