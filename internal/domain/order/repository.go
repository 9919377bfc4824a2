package order

import "context"

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	CustomerID    string
	Status        Status
	PaymentStatus PaymentStatus
	Limit         int
}

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	// List returns orders matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]*Order, error)
}
