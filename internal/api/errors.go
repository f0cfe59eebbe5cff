package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common API errors.
var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the request is unauthenticated or no
	// session token is available for an authenticated call.
	ErrUnauthorized = errors.New("unauthorized: log in with 'shelfview login'")
	// ErrForbidden is returned when the token is valid but lacks permission.
	ErrForbidden = errors.New("forbidden: your account may not perform this action")
)

// ConflictError is a business conflict such as adding a book that is already
// in the library or removing one that is not. It is informational.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict: " + strings.ToLower(e.Code)
}

// ValidationError carries field-keyed messages, either detected locally before
// a request or returned by the server.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StatusError is a non-success HTTP status that is neither auth, not-found,
// conflict nor validation. 5xx responses are retryable.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// NetworkError wraps a transport-level failure. The server's effect is unknown.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is returned when a response body could not be decoded.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Kind is the coarse error class used to drive retry decisions.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindAuth
	KindConflict
	KindNotFound
	KindServer
	KindNetwork
	KindParse
	KindCanceled
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not-found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify maps any error returned by the client to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var (
		ve *ValidationError
		ce *ConflictError
		se *StatusError
		ne *NetworkError
		pe *ParseError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &ne):
		return KindCanceled
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return KindAuth
	case errors.As(err, &ce):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.As(err, &ne):
		return KindNetwork
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &se):
		if se.Code >= 500 {
			return KindServer
		}
		return KindUnknown
	default:
		return KindUnknown
	}
}

// Retryable reports whether err is a server or network failure.
func Retryable(err error) bool {
	k := Classify(err)
	return k == KindServer || k == KindNetwork
}
