package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("invoice: not found")
	ErrEmptyInvoice      = errors.New("invoice: at least one line item is required")
	ErrInvalidQuantity   = errors.New("invoice: quantity must be greater than zero")
	ErrInvalidTransition = errors.New("invoice: status transition not allowed")
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// OVERDUE is only ever written by an external due-date process; this engine
// accepts it as a current state but never sets it.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSent, StatusCancelled},
	StatusSent:      {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

type LineItem struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

type Invoice struct {
	ID          string
	CustomerID  string
	OrderID     string
	Items       []LineItem
	TotalAmount decimal.Decimal
	Status      Status
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds a DRAFT invoice, computing line totals and the invoice total.
func New(id, customerID, orderID string, items []LineItem, dueDate time.Time) (*Invoice, error) {
	if len(items) == 0 {
		return nil, ErrEmptyInvoice
	}

	total := decimal.Zero
	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		items[i].Total = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].Total)
	}

	now := time.Now().UTC()
	return &Invoice{
		ID:          id,
		CustomerID:  customerID,
		OrderID:     orderID,
		Items:       items,
		TotalAmount: total,
		Status:      StatusDraft,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (inv *Invoice) TransitionTo(next Status) error {
	if _, known := transitions[next]; !known {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	for _, allowed := range transitions[inv.Status] {
		if allowed == next {
			inv.Status = next
			inv.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, next)
}

func (inv *Invoice) IsTerminal() bool {
	return len(transitions[inv.Status]) == 0
}

func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	clone := *inv
	clone.Items = append([]LineItem(nil), inv.Items...)
	return &clone
}

func (inv *Invoice) touch() {
	inv.UpdatedAt = time.Now().UTC()
}
