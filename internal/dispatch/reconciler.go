package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
)

type PendingLister interface {
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]string, error)
}

// Reconciler re-dispatches orders that stayed pending longer than After,
// e.g. after a lost message or an exhausted retry budget.
type Reconciler struct {
	Orders     PendingLister
	Dispatcher orders.Dispatcher
	Interval   time.Duration
	After      time.Duration
	Batch      int
}

// Sweep runs one pass and returns how many orders were re-dispatched.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	batch := r.Batch
	if batch <= 0 {
		batch = 100
	}
	ids, err := r.Orders.ListStalePending(ctx, r.After, batch)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := r.Dispatcher.Dispatch(ctx, id); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		log.Printf("[reconciler] re-dispatched %d pending orders", n)
	}
	return n, nil
}

// Run sweeps every Interval until ctx is done. A zero Interval disables it.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		return nil
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[reconciler] sweep: %v", err)
			}
		}
	}
}
