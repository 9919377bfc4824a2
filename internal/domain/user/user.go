package user

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user: not found")

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleSupplier Role = "SUPPLIER"
	RoleCustomer Role = "CUSTOMER"
)

// User is read-only within this engine; the authentication layer owns it.
// Only the statistics aggregator consumes it.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	ListAll(ctx context.Context) ([]*User, error)
}
