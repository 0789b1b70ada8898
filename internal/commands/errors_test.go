package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsValidationError(t *testing.T) {
	h := NewHandler[invalidMessage](func(context.Context, invalidMessage) error { return nil })

	err := h.Execute(context.Background(), invalidMessage{})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if IsValidationError(wrapExecuteError(errors.New("boom"))) {
		t.Fatal("execution failures are not validation errors")
	}
	if IsValidationError(nil) {
		t.Fatal("nil is not a validation error")
	}
}

func TestIsInterrupted(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"cancelled", wrapContextError(context.Canceled), true},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), true},
		{"other", wrapExecuteError(errors.New("disk full")), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsInterrupted(tc.err); got != tc.want {
				t.Fatalf("IsInterrupted(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWrapContextErrorMatchesWrappedCauses(t *testing.T) {
	err := wrapContextError(fmt.Errorf("walk: %w", context.Canceled))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to stay visible, got %v", err)
	}
}
