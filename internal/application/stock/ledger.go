package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/emartlabs/fulfillment/internal/domain/event"
	domain "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("stock: quantity must be greater than zero")

// Reservation is one product-quantity pair of a reserve or restore batch.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Availability is the answer to a single-product stock probe.
type Availability struct {
	ProductID string
	Available bool
	Stock     int
	Requested int
}

// Ledger is the sole authority over product stock. All stock mutation goes
// through Reserve and Restore; nothing else may write the stock field.
type Ledger struct {
	products  domain.Repository
	publisher event.Publisher
}

func NewLedger(products domain.Repository, publisher event.Publisher) *Ledger {
	return &Ledger{
		products:  products,
		publisher: publisher,
	}
}

func (l *Ledger) CheckAvailability(ctx context.Context, productID string, quantity int) (*Availability, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := l.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &Availability{
		ProductID: productID,
		Available: p.Stock >= quantity,
		Stock:     p.Stock,
		Requested: quantity,
	}, nil
}

// Reserve decrements stock for every item as one atomic conditional batch.
// The decrement is conditioned on the stock level at commit time, not at an
// earlier read, so concurrent reservations can never drive stock negative.
// On failure nothing is written.
func (l *Ledger) Reserve(ctx context.Context, items []Reservation) error {
	deltas, err := toDeltas(items, -1)
	if err != nil {
		return err
	}

	if err := l.products.AdjustStock(ctx, deltas); err != nil {
		return err
	}

	l.announceDepleted(ctx, items)
	return nil
}

// Restore increments stock for every item. Restitution is best-effort: a
// product that no longer exists is skipped and reported, the rest of the
// batch still commits. The returned slice holds the skipped product ids.
func (l *Ledger) Restore(ctx context.Context, items []Reservation) ([]string, error) {
	deltas, err := toDeltas(items, 1)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx).With(zap.String("component", "stock_ledger"))

	var skipped []string
	for len(deltas) > 0 {
		err := l.products.AdjustStock(ctx, deltas)
		if err == nil {
			return skipped, nil
		}

		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return skipped, fmt.Errorf("stock: restore: %w", err)
		}

		// Drop the vanished product and commit the rest.
		skipped = append(skipped, nf.ProductID)
		logger.Warn("stock_restore_skipped",
			zap.String("product_id", nf.ProductID),
		)
		kept := deltas[:0]
		for _, d := range deltas {
			if d.ProductID != nf.ProductID {
				kept = append(kept, d)
			}
		}
		deltas = kept
	}
	return skipped, nil
}

func toDeltas(items []Reservation, sign int) ([]domain.StockDelta, error) {
	deltas := make([]domain.StockDelta, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		deltas = append(deltas, domain.StockDelta{
			ProductID: it.ProductID,
			Delta:     sign * it.Quantity,
		})
	}
	return deltas, nil
}

// announceDepleted publishes stock.depleted for reserved products that hit
// zero. The read happens after the batch committed, so it is informational
// only and never blocks the reservation.
func (l *Ledger) announceDepleted(ctx context.Context, items []Reservation) {
	if l.publisher == nil {
		return
	}
	logger := logging.FromContext(ctx).With(zap.String("component", "stock_ledger"))
	for _, it := range items {
		p, err := l.products.Get(ctx, it.ProductID)
		if err != nil || p.Status != domain.StatusOutOfStock {
			continue
		}
		if err := l.publisher.Publish(ctx, domain.NewStockDepletedEvent(p)); err != nil {
			logger.Warn("stock_depleted_publish_failed",
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
		}
	}
}
