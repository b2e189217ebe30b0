package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrInvalidProvider", ErrInvalidProvider, "invalid provider"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
		{"ErrUnsupportedType", ErrUnsupportedType, "unsupported content type"},
		{"ErrEmptyDocument", ErrEmptyDocument, "document has no text content"},
		{"ErrLockNotAcquired", ErrLockNotAcquired, "lock not acquired"},
		{"ErrDimensionMismatch", ErrDimensionMismatch, "embedding dimension mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidProvider,
		ErrServiceUnavailable,
		ErrUnsupportedType,
		ErrEmptyDocument,
		ErrLockNotAcquired,
		ErrDimensionMismatch,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestNewError_Nil(t *testing.T) {
	if err := NewError(KindFetch, "read", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestError_Message(t *testing.T) {
	err := NewError(KindParse, "normalise https://example.com/a.pdf", ErrEmptyDocument)
	want := "normalise https://example.com/a.pdf: document has no text content"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	bare := &Error{Kind: KindStore, Err: ErrNotFound}
	if bare.Error() != "not found" {
		t.Errorf("expected bare message, got %q", bare.Error())
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	err := NewError(KindLLM, "complete", ErrServiceUnavailable)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Error("expected errors.Is to see the wrapped sentinel")
	}

	wrapped := fmt.Errorf("ingest: %w", err)
	var de *Error
	if !errors.As(wrapped, &de) {
		t.Fatal("expected errors.As to find *Error")
	}
	if de.Kind != KindLLM {
		t.Errorf("expected kind llm, got %s", de.Kind)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"fetch", NewError(KindFetch, "get", errors.New("dial tcp")), KindFetch},
		{"wrapped store", fmt.Errorf("outer: %w", NewError(KindStore, "index", errors.New("x"))), KindStore},
		{"outermost wins", NewError(KindLLM, "answer", NewError(KindStore, "search", errors.New("x"))), KindLLM},
		{"invalid input sentinel", fmt.Errorf("bad: %w", ErrInvalidInput), KindInvalidInput},
		{"plain", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(NewError(KindLLM, "complete", fmt.Errorf("send: %w", context.DeadlineExceeded))) {
		t.Error("expected deadline to be detected through wrapping")
	}
	if IsTimeout(errors.New("boom")) {
		t.Error("expected plain error not to be a timeout")
	}
}
