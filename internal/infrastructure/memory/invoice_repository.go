package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/emartlabs/fulfillment/internal/domain/invoice"
)

type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
}

func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices: make(map[string]*domain.Invoice),
	}
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *domain.Invoice) error {
	_ = ctx
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("invoice repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice repository: duplicate id %s", inv.ID)
	}
	r.invoices[inv.ID] = inv.Clone()
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return inv.Clone(), nil
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	_ = ctx
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("invoice repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[inv.ID]; !exists {
		return domain.ErrNotFound
	}
	r.invoices[inv.ID] = inv.Clone()
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Invoice, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
			continue
		}
		if f.OrderID != "" && inv.OrderID != f.OrderID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
