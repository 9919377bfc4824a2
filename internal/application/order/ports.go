package order

import (
	"context"

	"github.com/emartlabs/fulfillment/internal/application/stock"
)

type IDGenerator interface {
	NewID() string
}

// StockLedger is the outbound port for stock reservation and restitution.
// Order creation and cancellation are its only callers.
type StockLedger interface {
	Reserve(ctx context.Context, items []stock.Reservation) error
	Restore(ctx context.Context, items []stock.Reservation) ([]string, error)
}
