package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"golang.org/x/sync/errgroup"
)

var ErrQueueClosed = errors.New("dispatch: queue closed")

type Processor interface {
	Process(ctx context.Context, orderID string) (orders.Outcome, error)
}

// Queue is the in-process dispatcher: a buffered channel of order ids drained
// by a fixed set of goroutines.
type Queue struct {
	p       Processor
	workers int

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	jobs   chan string
}

func NewQueue(p Processor, workers, buf int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buf <= 0 {
		buf = 1
	}
	return &Queue{p: p, workers: workers, jobs: make(chan string, buf)}
}

// Dispatch enqueues orderID, blocking while the buffer is full.
func (q *Queue) Dispatch(ctx context.Context, orderID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- orderID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes ids until Close has been called and the buffer is empty, or
// until ctx is done. Ids still buffered at that point are lost; their orders
// stay pending.
func (q *Queue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case id, ok := <-q.jobs:
					if !ok {
						return nil
					}
					_, _ = q.p.Process(ctx, id)
				}
			}
		})
	}
	log.Printf("[queue] %d workers started", q.workers)
	return g.Wait()
}

// Close stops accepting ids. Run returns once the buffer is drained.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		q.mu.Unlock()
	})
}
