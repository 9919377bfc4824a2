package order

import "time"

// OrderCreatedEvent is emitted after an order is persisted and its stock
// reserved.
type OrderCreatedEvent struct {
	OrderID     string
	CustomerID  string
	TotalAmount string
	ItemCount   int
	OccurredAt  time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount.String(),
		ItemCount:   len(o.Items),
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderCancelledEvent is emitted when an order is cancelled. Restored lists
// the product ids whose stock was returned.
type OrderCancelledEvent struct {
	OrderID    string
	CustomerID string
	PriorState Status
	Restored   []string
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order, prior Status, restored []string) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		PriorState: prior,
		Restored:   restored,
		OccurredAt: time.Now().UTC(),
	}
}
