package payment

import "context"

type Filter struct {
	CustomerID string
	OrderID    string
	Status     Status
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	List(ctx context.Context, f Filter) ([]*Payment, error)
}
