package breaker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCall_Success(t *testing.T) {
	b := New(DefaultSettings("test"))

	got, err := Call(b, func() (string, error) { return "a cat sleeps", nil })
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != "a cat sleeps" {
		t.Errorf("Expected 'a cat sleeps', got %q", got)
	}
}

func TestCall_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New(Settings{Name: "trip", ConsecutiveFailures: 2, Cooldown: time.Minute})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := Call(b, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("Call %d: expected boom, got %v", i, err)
		}
	}

	if b.State() != "open" {
		t.Errorf("Expected open breaker, got %s", b.State())
	}

	calls := 0
	_, err := Call(b, func() (int, error) { calls++; return 1, nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no call while open, got %d", calls)
	}
}

func TestCall_CancellationDoesNotTrip(t *testing.T) {
	b := New(Settings{Name: "cancel", ConsecutiveFailures: 1, Cooldown: time.Minute})

	_, err := Call(b, func() (int, error) { return 0, fmt.Errorf("request: %w", context.Canceled) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if b.State() != "closed" {
		t.Errorf("Expected closed breaker after cancellation, got %s", b.State())
	}
}

func TestCall_NilBreaker(t *testing.T) {
	var b *Breaker
	got, err := Call(b, func() (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Errorf("Expected passthrough 7, got %d, %v", got, err)
	}
}
