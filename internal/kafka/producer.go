package kafka

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var ErrProducerClosed = errors.New("kafka: producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in an inbox drained by a single goroutine.
// Publish blocks when the inbox is full until ctx is done.
type Producer struct {
	w            messageWriter
	writeTimeout time.Duration
	retryBackoff time.Duration
	dropped      metric.Int64Counter

	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		// topic is created by the broker on first write in dev setups
		AllowAutoTopicCreation: true,
	}, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	if buf <= 0 {
		buf = 1
	}
	p := &Producer{
		w:            w,
		writeTimeout: 10 * time.Second,
		retryBackoff: 200 * time.Millisecond,
		inbox:        make(chan kafka.Message, buf),
		closeCh:      make(chan struct{}),
	}
	c, err := otel.Meter("dispatch").Int64Counter("dispatch.publish_failed",
		metric.WithDescription("messages dropped after the write deadline"))
	if err != nil {
		log.Printf("[kafka] counter: %v", err)
	}
	p.dropped = c
	return p
}

// Start runs the write loop until Close is called or ctx is done.
// Messages already in the inbox are flushed before the writer closes.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.closeCh:
		}
	}()
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			log.Printf("[kafka] close writer: %v", err)
		}
	}()
}

// write retries m until it is accepted or writeTimeout elapses. A message
// that never makes it is counted and logged; its order stays pending.
func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	attempts := 0
	for {
		attempts++
		err := p.w.WriteMessages(ctx, m)
		if err == nil {
			return
		}
		if attempts == 1 {
			log.Printf("[kafka] write key=%s: %v (retrying)", m.Key, err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(p.retryBackoff):
			continue
		}
		if p.dropped != nil {
			p.dropped.Add(context.Background(), 1)
		}
		log.Printf("[kafka] FATAL write key=%s dropped after %d attempts: %v (order stays pending)", m.Key, attempts, err)
		return
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages. It is safe to call more than once.
func (p *Producer) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
	})
}

// WaitClosed blocks until the inbox is flushed and the writer is closed.
func (p *Producer) WaitClosed() { <-p.closeCh }
