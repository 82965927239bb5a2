package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidDataset, "edge references unknown node: %s", "p42")
	if err.Code != ErrCodeInvalidDataset {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeInvalidDataset)
	}
	if !strings.Contains(err.Error(), "p42") {
		t.Errorf("Error() = %q, want node id in message", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeExportFailed, cause, "write artifact")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, want cause message included", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeBackendRuntime, "matmul failed")

	if !Is(err, ErrCodeBackendRuntime) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeBackendExhausted) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeBackendRuntime) {
		t.Error("Is should not match non-structured errors")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeBackendRuntime, "matmul failed")
	outer := Wrap(ErrCodeInternal, inner, "tick aborted")

	// errors.As finds the outermost *Error, so the outer code wins.
	if !Is(outer, ErrCodeInternal) {
		t.Error("Is should match the outermost code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeChartNotFound, "x")); got != ErrCodeChartNotFound {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeChartNotFound)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeExportFailed, "renderer unavailable")
	if got := UserMessage(err); got != "renderer unavailable" {
		t.Errorf("UserMessage = %q, want message without code prefix", got)
	}
	plain := stderrors.New("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage for plain error = %q", got)
	}
}
