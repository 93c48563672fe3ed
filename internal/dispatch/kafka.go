package dispatch

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// KafkaDispatcher publishes a ValidateOrder envelope keyed by order id.
type KafkaDispatcher struct {
	Producer Publisher
	Service  string
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, orderID string) error {
	env, err := orders.NewValidateOrderEnvelope(d.Service, orderID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return d.Producer.Publish(ctx, orders.PartitionKey(orderID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}
