package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeEmptyRegister, "register %q is empty", "state")
	if err.Code != ErrCodeEmptyRegister {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeEmptyRegister)
	}
	if err.Message != `register "state" is empty` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause should be nil, got %v", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeNilNetlist, "no netlist")
	want := "NIL_NETLIST: no netlist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := stderrors.New("boom")
	wrapped := Wrap(ErrCodeInternal, cause, "scan failed")
	want = "INTERNAL_ERROR: scan failed: boom"
	if wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := Wrap(ErrCodeInvalidNetlist, cause, "bad netlist")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeSizeMismatch, "4 != 8")
	if !Is(err, ErrCodeSizeMismatch) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeEmptyRegister) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeSizeMismatch) {
		t.Error("Is should not match a plain error")
	}

	// Matching through a fmt.Errorf wrapper.
	wrapped := fmt.Errorf("context: %w", err)
	if !Is(wrapped, ErrCodeSizeMismatch) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeRunNotFound, "nope")); got != ErrCodeRunNotFound {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeRunNotFound)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeEmptyNetlist, "netlist has no gates")
	if got := UserMessage(err); got != "netlist has no gates" {
		t.Errorf("UserMessage = %q", got)
	}
	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}
