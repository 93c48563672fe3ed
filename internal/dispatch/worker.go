package dispatch

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Validator interface {
	Validate(ctx context.Context, orderID string) (orders.Outcome, error)
}

// Worker runs one validation task: Validate under the retry policy, then the
// processing delay. It never fails an order itself; an order whose retries
// run out stays pending.
type Worker struct {
	v               Validator
	retry           Retry
	processingDelay time.Duration
	cache           redisx.Cacher

	attempts  metric.Int64Counter
	exhausted metric.Int64Counter
}

// NewWorker builds a Worker. cache may be nil; when set, the cached order is
// dropped after each run so reads see the new status.
func NewWorker(v Validator, retry Retry, processingDelay time.Duration, cache redisx.Cacher) *Worker {
	w := &Worker{v: v, retry: retry, processingDelay: processingDelay, cache: cache}
	m := otel.Meter("dispatch")
	var err error
	if w.attempts, err = m.Int64Counter("dispatch.attempts"); err != nil {
		log.Printf("[worker] counter: %v", err)
	}
	if w.exhausted, err = m.Int64Counter("dispatch.exhausted",
		metric.WithDescription("orders left pending after the retry budget ran out")); err != nil {
		log.Printf("[worker] counter: %v", err)
	}
	return w
}

func (w *Worker) Process(ctx context.Context, orderID string) (orders.Outcome, error) {
	var out orders.Outcome
	n, err := w.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if w.attempts != nil {
			w.attempts.Add(ctx, 1)
		}
		var verr error
		out, verr = w.v.Validate(ctx, orderID)
		if verr != nil && attempt < w.retry.Attempts {
			log.Printf("[worker] order %s attempt %d: %v", orderID, attempt, verr)
		}
		return verr
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrExhausted):
		if w.exhausted != nil {
			w.exhausted.Add(ctx, 1)
		}
		log.Printf("[worker] FATAL order %s left pending after %d attempts: %v", orderID, n, err)
		return orders.Outcome{}, err
	case ctx.Err() != nil:
		log.Printf("[worker] order %s interrupted: %v", orderID, err)
		return orders.Outcome{}, err
	default:
		log.Printf("[worker] order %s dropped: %v", orderID, err)
		return orders.Outcome{}, err
	}

	redisx.Invalidate(ctx, w.cache, redisx.OrderKey(orderID))
	// the outcome is committed; an interrupted delay does not undo it
	_ = sleep(ctx, w.processingDelay)
	return out, nil
}

// HandleMessage is the Kafka handler. It returns an error only when ctx is
// done mid-task, so the offset stays uncommitted and the message comes back.
// Undecodable messages and orders given up on are committed; the reconciler
// picks the latter up again.
func (w *Worker) HandleMessage(ctx context.Context, m kafka.Message) error {
	orderID, err := orders.DecodeValidateOrder(m.Value)
	if err != nil {
		log.Printf("[worker] skip message %d@%d: %v", m.Partition, m.Offset, err)
		return nil
	}
	if _, err := w.Process(ctx, orderID); err != nil && ctx.Err() != nil {
		return err
	}
	return nil
}
