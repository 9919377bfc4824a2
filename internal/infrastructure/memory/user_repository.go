package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/emartlabs/fulfillment/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *UserRepository) Put(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.ID == "" {
		return fmt.Errorf("user repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.User
	for _, u := range r.users {
		if u.Role != role {
			continue
		}
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}
