package product

import "time"

// StockDepletedEvent is emitted when a reservation drives a product's stock
// to zero.
type StockDepletedEvent struct {
	ProductID   string
	ProductName string
	OccurredAt  time.Time
}

func (StockDepletedEvent) EventName() string { return "stock.depleted" }

func NewStockDepletedEvent(p *Product) StockDepletedEvent {
	return StockDepletedEvent{
		ProductID:   p.ID,
		ProductName: p.Name,
		OccurredAt:  time.Now().UTC(),
	}
}
