package errors

import (
	stderrors "errors"
	"testing"
)

func TestIsMatchesCategory(t *testing.T) {
	err := RuntimeInitError(stderrors.New("no threads"))
	if !Is(err, CategoryRuntimeInit) {
		t.Fatalf("expected CategoryRuntimeInit, got %v", err)
	}
	if Is(err, CategoryPrimary) {
		t.Fatal("category must not match a different one")
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := PrimaryError(cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestPrimaryErrorNilIsNil(t *testing.T) {
	if err := PrimaryError(nil); err != nil {
		t.Fatalf("PrimaryError(nil) = %v, want nil", err)
	}
}

func TestIsMatchesWrappedCategory(t *testing.T) {
	inner := NewServiceError(stderrors.New("db down"), "db down")
	wrapped := stderrors.Join(stderrors.New("context"), inner)
	if !Is(wrapped, CategoryService) {
		t.Fatalf("expected CategoryService through wrapping, got %v", wrapped)
	}
}
