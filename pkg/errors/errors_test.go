package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New(CodeStoreFailure, "upsert agent", cause)

	msg := err.Error()
	if !strings.Contains(msg, string(CodeStoreFailure)) {
		t.Fatalf("message missing code: %s", msg)
	}
	if !strings.Contains(msg, "disk full") {
		t.Fatalf("message missing cause: %s", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("no such table")
	err := New(CodeStoreFailure, "list agents", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected errors.Is to find cause")
	}
}

func TestWithContext(t *testing.T) {
	err := New(CodeSourceFailure, "runtime inventory", nil).
		WithContext("command", "openclaw").
		WithRecoverable(true)

	if err.Context["command"] != "openclaw" {
		t.Fatalf("context not set: %v", err.Context)
	}
	if !err.Recoverable {
		t.Fatal("expected recoverable")
	}
}

func TestAsWrapsUnknown(t *testing.T) {
	plain := stderrors.New("boom")
	typed := As(plain)
	if typed.Code != CodeInternal {
		t.Fatalf("code = %s, want %s", typed.Code, CodeInternal)
	}
	if !stderrors.Is(typed, plain) {
		t.Fatal("expected cause preserved")
	}

	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}

	orig := New(CodeNotFound, "agent", nil)
	if As(orig) != orig {
		t.Fatal("As should pass through typed errors")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeInvalidInput, "bad roster row", stderrors.New("empty name")).
		WithContext("row", 3)

	data, jerr := err.MarshalJSON()
	if jerr != nil {
		t.Fatalf("marshal: %v", jerr)
	}
	s := string(data)
	for _, want := range []string{`"code":"INVALID_INPUT"`, `"bad roster row"`, `"empty name"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("json missing %s: %s", want, s)
		}
	}
}
