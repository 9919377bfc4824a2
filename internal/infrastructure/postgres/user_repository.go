package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/emartlabs/fulfillment/internal/domain/user"
	"github.com/jmoiron/sqlx"
)

type userRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Role:      domain.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	var rows []userRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM users WHERE role = $1`, string(role))
	if err != nil {
		return nil, fmt.Errorf("postgres: list users by role: %w", err)
	}
	out := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM users`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	out := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
