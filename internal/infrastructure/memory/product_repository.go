package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/emartlabs/fulfillment/internal/domain/product"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, &domain.NotFoundError{ProductID: id}
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p.Clone()
	return nil
}

// AdjustStock applies the whole batch under one exclusive lock: every delta
// is checked before anything is written, so a failing item leaves all
// products untouched. A batch may name the same product more than once; each
// delta is checked against the running level, the same way the sequential
// conditional updates of the SQL implementation see it.
func (r *ProductRepository) AdjustStock(ctx context.Context, deltas []domain.StockDelta) error {
	_ = ctx
	if len(deltas) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	applied := make(map[string]int, len(deltas))
	for _, d := range deltas {
		p, ok := r.products[d.ProductID]
		if !ok {
			return &domain.NotFoundError{ProductID: d.ProductID}
		}
		level := p.Stock + applied[d.ProductID]
		if level+d.Delta < 0 {
			return &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   level,
				Requested:   -d.Delta,
			}
		}
		applied[d.ProductID] += d.Delta
	}

	for id, delta := range applied {
		p := r.products[id]
		clone := p.Clone()
		clone.Stock += delta
		clone.Status = domain.AvailabilityFor(clone.Stock)
		clone.UpdatedAt = now()
		r.products[id] = clone
	}
	return nil
}
