package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUnsupportedType indicates no normaliser handles the content type
	ErrUnsupportedType = errors.New("unsupported content type")

	// ErrEmptyDocument indicates a source produced no extractable text
	ErrEmptyDocument = errors.New("document has no text content")

	// ErrLockNotAcquired indicates the ingest lock is held elsewhere
	ErrLockNotAcquired = errors.New("lock not acquired")

	// ErrDimensionMismatch indicates vectors of different sizes were compared or stored
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ErrorKind classifies a failure by the pipeline stage that produced it.
type ErrorKind string

const (
	KindUnknown      ErrorKind = "unknown"
	KindInvalidInput ErrorKind = "invalid_input"
	KindFetch        ErrorKind = "fetch" // locator unreachable or malformed
	KindParse        ErrorKind = "parse" // content could not be extracted
	KindStore        ErrorKind = "store" // embedding or vector index failure
	KindLLM          ErrorKind = "llm"   // completion failure
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and operation name.
// Returns nil when err is nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrInvalidInput) {
		return KindInvalidInput
	}
	return KindUnknown
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
