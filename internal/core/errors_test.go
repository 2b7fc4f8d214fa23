package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Format(t *testing.T) {
	e := &Error{Code: "NO_DATA", Message: "no data available"}
	if e.Error() != "[NO_DATA] no data available" {
		t.Errorf("unexpected message: %s", e.Error())
	}

	wrapped := WrapError(e, fmt.Errorf("boom"))
	if wrapped.Error() != "[NO_DATA] no data available: boom" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := WrapError(ErrLLMFailed, fmt.Errorf("timeout"))

	if !errors.Is(wrapped, ErrLLMFailed) {
		t.Error("wrapped error should match its base by code")
	}
	if errors.Is(wrapped, ErrNoData) {
		t.Error("wrapped error should not match a different code")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	wrapped := WrapError(ErrCollectorFailed, cause)

	if !errors.Is(wrapped, cause) {
		t.Error("unwrap should expose the cause")
	}
}
