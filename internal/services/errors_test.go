package services_test

import (
	"errors"
	"testing"

	"nucliasync/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	err := services.Wrap(services.ErrConnection, "nuclia", "create resource", "remote unreachable", base)

	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("expected connection marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name   string
		marker error
		want   bool
	}{
		{"connection", services.ErrConnection, true},
		{"validation", services.ErrValidation, false},
		{"configuration", services.ErrConfiguration, false},
		{"not found", services.ErrNotFound, false},
		{"invalid job", services.ErrInvalidJob, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := services.Wrap(tc.marker, "test", "op", "", nil)
			if got := services.IsRetryable(err); got != tc.want {
				t.Fatalf("IsRetryable(%v) = %v, want %v", err, got, tc.want)
			}
		})
	}
}

func TestIsSkippable(t *testing.T) {
	if !services.IsSkippable(services.Wrap(services.ErrNotFound, "t", "o", "", nil)) {
		t.Fatal("not-found should be skippable")
	}
	if !services.IsSkippable(services.Wrap(services.ErrInvalidJob, "t", "o", "", nil)) {
		t.Fatal("invalid job data should be skippable")
	}
	if services.IsSkippable(services.Wrap(services.ErrValidation, "t", "o", "", nil)) {
		t.Fatal("validation errors should not be skippable")
	}
}
