// Package dispatch delivers order ids to the validator: at-least-once, with a
// bounded fixed-delay retry, over Kafka or an in-process queue.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/errs"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry budget exhausted")

// Retry is a fixed-delay retry policy. Attempts counts the first call.
type Retry struct {
	Attempts int
	Delay    time.Duration
}

// Do calls fn until it returns nil or a non-retryable error, the attempts run
// out, or ctx is done. It returns the number of calls made.
func (r Retry) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(ctx, i); err == nil {
			return i, nil
		}
		if !errs.Retryable(err) {
			return i, err
		}
		if i == attempts {
			break
		}
		if serr := sleep(ctx, r.Delay); serr != nil {
			return i, fmt.Errorf("%w (last error: %w)", serr, err)
		}
	}
	return attempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
