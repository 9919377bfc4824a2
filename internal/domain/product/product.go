package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidName       = errors.New("product: name is required")
	ErrInvalidPrice      = errors.New("product: price must be zero or greater")
	ErrInvalidStock      = errors.New("product: stock must be zero or greater")
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusPending    Status = "PENDING"
	StatusRejected   Status = "REJECTED"
	StatusOutOfStock Status = "OUT_OF_STOCK"
)

// AvailabilityFor maps a stock level to the availability side of the status.
// Moderation states (PENDING, REJECTED, INACTIVE) are not derived from stock
// and are never produced here.
func AvailabilityFor(stock int) Status {
	if stock <= 0 {
		return StatusOutOfStock
	}
	return StatusActive
}

type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Stock      int
	Status     Status
	SupplierID string
	Barcode    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, name string, price decimal.Decimal, stock int, supplierID string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:         id,
		Name:       name,
		Price:      price,
		Stock:      stock,
		Status:     AvailabilityFor(stock),
		SupplierID: supplierID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// NotFoundError carries the product id of a failed lookup. It unwraps to
// ErrNotFound so callers can match either way.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s: not found", e.ProductID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a reservation that asked for more units than
// the product had at commit time.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("product %s: insufficient stock: %d available, %d requested",
		name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
