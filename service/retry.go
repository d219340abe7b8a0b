package service

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lib/pq"

	"go-ledger/config"
)

// SQLSTATE codes PostgreSQL raises when concurrent units of work contend.
const (
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeLockNotAvailable     pq.ErrorCode = "55P03"
)

// RetryPolicy bounds how often a unit of work is retried after a transient
// conflict. The delay before attempt n+1 is drawn uniformly from
// [0, min(BaseDelay*2^(n-1), MaxDelay)].
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxDelay:    cfg.MaxDelay,
	}
}

// backoff returns the jittered delay to wait after the given failed attempt (1-based).
// Without a MaxDelay the ceiling stops doubling before it would overflow.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	ceiling := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if ceiling > math.MaxInt64/2 {
			ceiling = math.MaxInt64
			break
		}
		ceiling *= 2
		if p.MaxDelay > 0 && ceiling >= p.MaxDelay {
			break
		}
	}
	if p.MaxDelay > 0 && ceiling > p.MaxDelay {
		ceiling = p.MaxDelay
	}
	if ceiling == math.MaxInt64 {
		return time.Duration(rand.Int64N(int64(ceiling)))
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsTransientConflict reports whether err is a lock-wait, deadlock or
// serialization failure that is safe to retry from the start of the unit of work.
func IsTransientConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	default:
		return false
	}
}
