// Package ratelimit throttles repeated failed logins per identifier.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrRateLimited = errors.New("rate limited")

// Limiter counts failures for a key within a cooldown window.
type Limiter interface {
	// Check returns ErrRateLimited once the failure budget is spent.
	Check(ctx context.Context, key string) error
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Noop never limits. Used when MaxAttempts is not positive.
type Noop struct{}

func (Noop) Check(context.Context, string) error { return nil }
func (Noop) Fail(context.Context, string) error  { return nil }
func (Noop) Reset(context.Context, string) error { return nil }
