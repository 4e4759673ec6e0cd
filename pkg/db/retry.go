package db

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	apperrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// Retrier runs storage operations under a bounded fibonacci backoff. Only
// transient failures are retried; once attempts are exhausted the error
// surfaces as STORAGE_UNAVAILABLE so callers can signal retryability.
type Retrier struct {
	attempts uint64
	baseWait time.Duration
}

func NewRetrier(cfg config.DBConfig) Retrier {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	baseWait := cfg.RetryBaseWait
	if baseWait <= 0 {
		baseWait = 50 * time.Millisecond
	}
	return Retrier{attempts: uint64(attempts), baseWait: baseWait}
}

// Do invokes fn until it succeeds, fails permanently, or the attempt budget
// runs out. The op name ends up in the wrapped error message.
func (r Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(r.attempts, retry.NewFibonacci(r.baseWait))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}

	if IsTransient(err) {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, err, op+" failed after retries")
	}
	return err
}
