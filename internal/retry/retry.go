package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"dailybrief/internal/domain"
)

// Policy retries rate-limit-class failures with exponential backoff. Every
// other error class fails immediately: misconfiguration does not get better
// by waiting.
type Policy struct {
	MaxAttempts uint64
	BaseDelay   time.Duration
}

// DefaultPolicy matches the external-service contract: up to four attempts
// with a doubling delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond}
}

// Do runs op, retrying only when it fails with domain.ErrRateLimited.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrRateLimited) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxAttempts-1), ctx))
}
