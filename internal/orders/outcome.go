package orders

import "fmt"

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailed  OutcomeKind = "failed"
	// OutcomeAlreadyProcessed means the order had left pending before this run; nothing was written.
	OutcomeAlreadyProcessed OutcomeKind = "already_processed"
)

const ReasonInsufficientStock = "insufficient_stock"

// Outcome is the result of one validation run. Hard failures are reported
// through the error return instead.
type Outcome struct {
	Kind        OutcomeKind
	OrderID     string
	ProductName string
	Requested   int
	Available   int    // stock seen under lock; set for OutcomeFailed
	Reason      string // set for OutcomeFailed
	Status      Status // order status after the run
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("order %s success: %d x %s", o.OrderID, o.Requested, o.ProductName)
	case OutcomeFailed:
		return fmt.Sprintf("order %s failed (%s): %s need %d, available %d",
			o.OrderID, o.Reason, o.ProductName, o.Requested, o.Available)
	case OutcomeAlreadyProcessed:
		return fmt.Sprintf("order %s already processed with status %s", o.OrderID, o.Status)
	}
	return "order " + o.OrderID + " unknown outcome"
}
