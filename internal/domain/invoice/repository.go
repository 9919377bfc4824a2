package invoice

import "context"

type Filter struct {
	CustomerID string
	OrderID    string
	Status     Status
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, f Filter) ([]*Invoice, error)
}
