package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retry re-runs failed writes with exponential backoff.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *zap.Logger
}

// Do runs fn until it succeeds, the attempts are used up or ctx is done.
func (r Retry) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	maxRetries := r.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		logger.Warn("write failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
