package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestOpErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &OpError{
		Op:   "rubric.load",
		Kind: KindInvalidConfig,
		Path: "rubrics/lab1.yaml",
		Err:  root,
	}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}

	var got *OpError
	if !errors.As(err, &got) {
		t.Fatalf("expected errors.As to match OpError")
	}
	if got.Kind != KindInvalidConfig {
		t.Fatalf("expected kind %s", KindInvalidConfig)
	}

	msg := err.Error()
	for _, want := range []string{"rubric.load", "invalid_config", "rubrics/lab1.yaml", "root"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := &OpError{Op: "x", Kind: KindNotFound}
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected IsKind to match")
	}
	if IsKind(err, KindExecution) {
		t.Fatalf("expected IsKind mismatch")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Fatalf("plain errors have no kind")
	}
}

func TestNilOpErrorString(t *testing.T) {
	var e *OpError
	if e.Error() != "<nil>" {
		t.Fatalf("expected <nil>, got %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
}
