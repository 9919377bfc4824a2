package invoice

import "time"

// InvoiceSentEvent is emitted when an invoice leaves DRAFT.
type InvoiceSentEvent struct {
	InvoiceID   string
	CustomerID  string
	TotalAmount string
	OccurredAt  time.Time
}

func (InvoiceSentEvent) EventName() string { return "invoice.sent" }

func NewInvoiceSentEvent(inv *Invoice) InvoiceSentEvent {
	return InvoiceSentEvent{
		InvoiceID:   inv.ID,
		CustomerID:  inv.CustomerID,
		TotalAmount: inv.TotalAmount.String(),
		OccurredAt:  time.Now().UTC(),
	}
}
