package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fastPolicy = RetryPolicy{Attempts: 4, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls, notified := 0, 0
	err := Retry(context.Background(), fastPolicy, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(error, time.Duration) { notified++ })
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 || notified != 2 {
		t.Errorf("calls = %d, notified = %d, want 3 and 2", calls, notified)
	}
}

func TestRetryGivesUp(t *testing.T) {
	refused := errors.New("connection refused")
	calls := 0
	err := Retry(context.Background(), fastPolicy, func(context.Context) error {
		calls++
		return refused
	}, nil)
	if !errors.Is(err, refused) {
		t.Fatalf("err = %v, want %v", err, refused)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryPolicy{}, func(context.Context) error {
		calls++
		return errors.New("down")
	}, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
