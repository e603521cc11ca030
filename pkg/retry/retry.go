package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

func (p Policy) backoff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		exp.Multiplier = p.Multiplier
	}
	exp.MaxElapsedTime = 0
	return backoff.WithContext(exp, ctx)
}

// Forever retries fn with exponential backoff until it succeeds or ctx
// is cancelled. Used by consumer loops to ride out broker outages.
func Forever(ctx context.Context, policy Policy, fn func() error) error {
	return backoff.Retry(fn, policy.backoff(ctx))
}

// Notify is like Forever but reports each failed attempt.
func Notify(ctx context.Context, policy Policy, fn func() error, onRetry func(err error, next time.Duration)) error {
	return backoff.RetryNotify(fn, policy.backoff(ctx), onRetry)
}
