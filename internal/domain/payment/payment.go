package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("payment: not found")
	ErrInvalidAmount     = errors.New("payment: amount must be zero or greater")
	ErrInvalidMethod     = errors.New("payment: unknown payment method")
	ErrInvalidTransition = errors.New("payment: status transition not allowed")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

type Method string

const (
	MethodCash          Method = "CASH"
	MethodCreditCard    Method = "CREDIT_CARD"
	MethodDebitCard     Method = "DEBIT_CARD"
	MethodBankTransfer  Method = "BANK_TRANSFER"
	MethodDigitalWallet Method = "DIGITAL_WALLET"
)

// Refunds are only reachable from COMPLETED; FAILED, REFUNDED and CANCELLED
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {StatusRefunded},
	StatusFailed:    {},
	StatusRefunded:  {},
	StatusCancelled: {},
}

type Payment struct {
	ID         string
	CustomerID string
	// OrderID links the payment to an order by reference only; it may be
	// empty for stand-alone payments.
	OrderID   string
	Amount    decimal.Decimal
	Method    Method
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, customerID, orderID string, amount decimal.Decimal, method Method) (*Payment, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	switch method {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodBankTransfer, MethodDigitalWallet:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	now := time.Now().UTC()
	return &Payment{
		ID:         id,
		CustomerID: customerID,
		OrderID:    orderID,
		Amount:     amount,
		Method:     method,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (p *Payment) TransitionTo(next Status) error {
	if _, known := transitions[next]; !known {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	for _, allowed := range transitions[p.Status] {
		if allowed == next {
			p.Status = next
			p.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, next)
}

func (p *Payment) IsTerminal() bool {
	return len(transitions[p.Status]) == 0
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}
