package payment

import "time"

// PaymentCompletedEvent is emitted after a settlement succeeds and the
// payment is persisted as COMPLETED.
type PaymentCompletedEvent struct {
	PaymentID  string
	OrderID    string
	CustomerID string
	Amount     string
	OccurredAt time.Time
}

func (PaymentCompletedEvent) EventName() string { return "payment.completed" }

func NewPaymentCompletedEvent(p *Payment) PaymentCompletedEvent {
	return PaymentCompletedEvent{
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		CustomerID: p.CustomerID,
		Amount:     p.Amount.String(),
		OccurredAt: time.Now().UTC(),
	}
}
