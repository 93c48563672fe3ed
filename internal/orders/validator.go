package orders

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Validator is the only component allowed to move an order out of pending
// and the only writer of product stock.
type Validator struct {
	store       Store
	tracer      trace.Tracer
	validations metric.Int64Counter
}

func NewValidator(store Store) *Validator {
	v := &Validator{
		store:  store,
		tracer: otel.Tracer("orders"),
	}
	c, err := otel.Meter("orders").Int64Counter("orders.validations",
		metric.WithDescription("completed order validations by outcome"))
	if err != nil {
		log.Printf("[validator] counter: %v", err)
	}
	v.validations = c
	return v
}

// Validate runs the pending -> success|failed transition for one order in a
// single transaction. Rows are locked order first, then product; every code
// path that locks both must keep that order.
//
// An insufficient-stock result is committed and returned as OutcomeFailed with
// a nil error. A non-pending order yields OutcomeAlreadyProcessed without writes.
// Any error means the transaction rolled back and nothing changed.
func (v *Validator) Validate(ctx context.Context, orderID string) (Outcome, error) {
	ctx, span := v.tracer.Start(ctx, "orders.validate",
		trace.WithAttributes(attribute.String("order_id", orderID)))
	defer span.End()

	var out Outcome
	err := v.store.WithTx(ctx, func(tx Tx) error {
		out = Outcome{OrderID: orderID}

		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			out.Kind = OutcomeAlreadyProcessed
			out.Status = o.Status
			out.Requested = o.Amount
			return nil
		}

		p, err := tx.GetProductForUpdate(ctx, o.ProductID)
		if err != nil {
			return err
		}
		out.ProductName = p.Name
		out.Requested = o.Amount

		if o.Amount > p.Stock {
			if err := tx.UpdateOrderStatus(ctx, o.ID, StatusPending, StatusFailed); err != nil {
				return err
			}
			out.Kind = OutcomeFailed
			out.Reason = ReasonInsufficientStock
			out.Available = p.Stock
			out.Status = StatusFailed
			return nil
		}

		if err := tx.DecrementStock(ctx, p.ID, o.Amount); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, o.ID, StatusPending, StatusSuccess); err != nil {
			return err
		}
		out.Kind = OutcomeSuccess
		out.Status = StatusSuccess
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}

	span.SetAttributes(attribute.String("outcome", string(out.Kind)))
	if v.validations != nil {
		v.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(out.Kind))))
	}
	log.Printf("[validator] %s", out)
	return out, nil
}
