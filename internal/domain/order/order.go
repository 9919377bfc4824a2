package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = errors.New("order: not found")
	ErrEmptyOrder           = errors.New("order: at least one item is required")
	ErrInvalidQuantity      = errors.New("order: quantity must be greater than zero")
	ErrInvalidTransition    = errors.New("order: status transition not allowed")
	ErrAlreadyTerminal      = errors.New("order: order is in a terminal status")
	ErrInvalidPaymentStatus = errors.New("order: unknown payment status")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// transitions is the closed set of legal status edges. DELIVERED and
// CANCELLED have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// LineItem is an immutable snapshot of a product at order time.
type LineItem struct {
	ProductID    string
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	Total        decimal.Decimal
}

type Order struct {
	ID              string
	CustomerID      string
	Items           []LineItem
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	ShippingAddress string
	PaymentMethod   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a PENDING order from already-snapshotted line items. The total
// is the exact sum of the line totals and is never recomputed afterwards.
func New(id, customerID string, items []LineItem, shippingAddress, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := decimal.Zero
	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		items[i].Total = items[i].ProductPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		total = total.Add(items[i].Total)
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		CustomerID:      customerID,
		Items:           items,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// TransitionTo moves the order along a legal edge of the status machine.
// A raw status overwrite must never bypass this.
func (o *Order) TransitionTo(next Status) error {
	if _, known := transitions[next]; !known {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	for _, allowed := range transitions[o.Status] {
		if allowed == next {
			o.Status = next
			o.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
}

// Cancel marks the order CANCELLED. Terminal orders cannot be cancelled.
func (o *Order) Cancel() error {
	if o.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, o.Status)
	}
	o.Status = StatusCancelled
	o.touch()
	return nil
}

func (o *Order) IsTerminal() bool {
	return len(transitions[o.Status]) == 0
}

// SetPaymentStatus writes the denormalized payment status field. It is not
// cross-checked against the order status machine.
func (o *Order) SetPaymentStatus(ps PaymentStatus) error {
	switch ps {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		o.PaymentStatus = ps
		o.touch()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, ps)
	}
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
