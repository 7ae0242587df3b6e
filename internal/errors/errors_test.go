package errors

import (
	"errors"
	"testing"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("expected 'test error', got '%s'", err.Error())
	}
}

func TestWithReason(t *testing.T) {
	err := WithReason(ErrInvalidInput, "insufficient funds")

	if err.Error() != "insufficient funds" {
		t.Errorf("expected 'insufficient funds', got '%s'", err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected reason error to match ErrInvalidInput")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("reason error must not match an unrelated sentinel")
	}

	wrapped := Wrap(err, "transfer")
	if !Is(wrapped, ErrInvalidInput) {
		t.Error("expected wrapped reason error to keep its kind")
	}
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		if wrapped == nil {
			t.Fatal("expected wrapped error, got nil")
		}
		expected := "wrapped: base error"
		if wrapped.Error() != expected {
			t.Errorf("expected '%s', got '%s'", expected, wrapped.Error())
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("expected wrapped error to wrap baseErr")
		}
	})

	t.Run("wrap nil error", func(t *testing.T) {
		wrapped := Wrap(nil, "wrapped")
		if wrapped != nil {
			t.Errorf("expected nil, got %v", wrapped)
		}
	})
}

func TestWrapf(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrapf non-nil error", func(t *testing.T) {
		wrapped := Wrapf(baseErr, "wrapped %d", 123)
		if wrapped == nil {
			t.Fatal("expected wrapped error, got nil")
		}
		expected := "wrapped 123: base error"
		if wrapped.Error() != expected {
			t.Errorf("expected '%s', got '%s'", expected, wrapped.Error())
		}
	})

	t.Run("wrapf nil error", func(t *testing.T) {
		if wrapped := Wrapf(nil, "wrapped %d", 1); wrapped != nil {
			t.Errorf("expected nil, got %v", wrapped)
		}
	})
}

func TestAs(t *testing.T) {
	err := Wrap(customError{Msg: "custom"}, "context")

	var target customError
	if !As(err, &target) {
		t.Fatal("expected As to find customError")
	}
	if target.Msg != "custom" {
		t.Errorf("expected 'custom', got '%s'", target.Msg)
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrInvalidState,
		ErrUnauthorized,
		ErrForbidden,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v must not match %v", a, b)
			}
		}
	}
}

func TestReason(t *testing.T) {
	reason, ok := Reason(Wrap(WithReason(ErrInvalidState, "card is frozen"), "request block"))
	if !ok || reason != "card is frozen" {
		t.Errorf("expected reason 'card is frozen', got '%s' (ok=%v)", reason, ok)
	}

	if _, ok := Reason(Wrap(ErrNotFound, "card")); ok {
		t.Error("expected no reason on plain wrapped sentinel")
	}
}
