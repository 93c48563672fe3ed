package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message is done and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers)
}

func newConsumer(r messageReader, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers}
}

// Start fetches messages and fans them out to the worker pool until ctx is
// done. In-flight handlers finish before the reader is closed.
//
// Handlers on one partition run concurrently, so offsets are committed only
// up to the highest offset below which every fetched message succeeded. A
// failed message holds back every later commit on its partition and is
// fetched again after a restart or rebalance.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	jobs := make(chan kafka.Message, c.workers)
	t := newOffsetTracker()
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, h, t, m)
			}
		}()
	}
	defer func() {
		close(jobs)
		wg.Wait()
		if err := c.r.Close(); err != nil {
			log.Printf("[kafka] close reader: %v", err)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		t.fetched(m)
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, t *offsetTracker, m kafka.Message) {
	if err := h(ctx, m); err != nil {
		log.Printf("[kafka] handle %s/%d@%d: %v (holds back commits on this partition)", m.Topic, m.Partition, m.Offset, err)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	upTo, ok := t.doneLocked(m)
	if !ok {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.r.CommitMessages(cctx, upTo); err != nil {
		log.Printf("[kafka] commit %s/%d@%d: %v", upTo.Topic, upTo.Partition, upTo.Offset, err)
	}
}

type partition struct {
	topic string
	id    int
}

// offsetTracker keeps, per partition, the fetched offsets not yet committed
// in fetch order and which of them have been handled successfully.
type offsetTracker struct {
	mu      sync.Mutex
	pending map[partition][]kafka.Message
	done    map[partition]map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{
		pending: map[partition][]kafka.Message{},
		done:    map[partition]map[int64]bool{},
	}
}

func (t *offsetTracker) fetched(m kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := partition{m.Topic, m.Partition}
	t.pending[p] = append(t.pending[p], m)
}

// doneLocked marks m handled and returns the last message of the contiguous
// handled prefix, if that prefix grew. Callers hold t.mu so commits on a
// partition go out in increasing order.
func (t *offsetTracker) doneLocked(m kafka.Message) (kafka.Message, bool) {
	p := partition{m.Topic, m.Partition}
	if t.done[p] == nil {
		t.done[p] = map[int64]bool{}
	}
	t.done[p][m.Offset] = true

	var upTo kafka.Message
	advanced := false
	q := t.pending[p]
	for len(q) > 0 && t.done[p][q[0].Offset] {
		upTo = q[0]
		delete(t.done[p], q[0].Offset)
		q = q[1:]
		advanced = true
	}
	t.pending[p] = q
	return upTo, advanced
}
