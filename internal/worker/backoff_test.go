package worker

import (
	"testing"
	"time"
)

func TestBackoffDelayDoublesPerAttempt(t *testing.T) {
	base := 30 * time.Second
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(base, tc.attempts); got != tc.want {
			t.Errorf("attempts=%d: got %s, want %s", tc.attempts, got, tc.want)
		}
	}
}

func TestBackoffDelayCaps(t *testing.T) {
	if got := backoffDelay(30*time.Second, 20); got != maxBackoff {
		t.Fatalf("expected cap at %s, got %s", maxBackoff, got)
	}
}

func TestBackoffDelayDefaultsBase(t *testing.T) {
	if got := backoffDelay(0, 0); got != 30*time.Second {
		t.Fatalf("expected 30s default base, got %s", got)
	}
}
