package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailybrief/internal/domain"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 4, BaseDelay: time.Millisecond}
}

func TestDoRetriesRateLimited(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return domain.ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("op called %d times, want 3", calls)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return domain.ErrRateLimited
	})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limit error after exhaustion, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("op called %d times, want 4", calls)
	}
}

func TestDoFailsFastOnAuthErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return domain.ErrAuthConfiguration
	})
	if !errors.Is(err, domain.ErrAuthConfiguration) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("auth error retried: op called %d times, want 1", calls)
	}
}

func TestDoFailsFastOnUnknownErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped op error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("unknown error retried: op called %d times, want 1", calls)
	}
}
