package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		calls++
		return 7, nil
	})
	if err != nil {
		t.Fatalf("RetryWithResult: %v", err)
	}
	if got != 7 || calls != 1 {
		t.Errorf("got %d after %d calls, want 7 after 1", got, calls)
	}
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("RetryWithResult: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls, want ok after 3", got, calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	wantErr := errors.New("still down")
	calls := 0
	_, err := RetryWithResult(context.Background(), fastRetryConfig(), func() (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want the last failure", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxAttempts", calls)
	}
}

func TestRetryStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := RetryWithResult(ctx, fastRetryConfig(), func() (int, error) {
		calls++
		cancel()
		return 0, errors.New("failing")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 before cancellation stops the loop", calls)
	}
}

func TestRetryWithoutResult(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
