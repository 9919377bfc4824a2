package product

import "context"

// StockDelta is one signed stock adjustment within an atomic batch. Negative
// deltas reserve units, positive deltas restore them.
type StockDelta struct {
	ProductID string
	Delta     int
}

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	Save(ctx context.Context, p *Product) error

	// AdjustStock applies every delta or none of them. A delta that would
	// drive stock below zero fails the whole batch with
	// *InsufficientStockError; an unknown product fails it with
	// *NotFoundError. Availability status is recomputed for every touched
	// product.
	AdjustStock(ctx context.Context, deltas []StockDelta) error
}
