package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/emartlabs/fulfillment/internal/domain/payment"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type paymentRow struct {
	ID         string          `db:"id"`
	CustomerID string          `db:"customer_id"`
	OrderID    string          `db:"order_id"`
	Amount     decimal.Decimal `db:"amount"`
	Method     string          `db:"method"`
	Status     string          `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r paymentRow) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		OrderID:    r.OrderID,
		Amount:     r.Amount,
		Method:     domain.Method(r.Method),
		Status:     domain.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, customer_id, order_id, amount, method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.CustomerID, p.OrderID, p.Amount, string(p.Method), string(p.Status),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	var row paymentRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get payment: %w", err)
	}
	return row.toDomain(), nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET amount = $1, method = $2, status = $3, updated_at = $4 WHERE id = $5`,
		p.Amount, string(p.Method), string(p.Status), p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("postgres: update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update payment: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Payment, error) {
	query := `SELECT * FROM payments`
	var conds []string
	var args []any

	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if f.OrderID != "" {
		args = append(args, f.OrderID)
		conds = append(conds, "order_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("postgres: list payments: %w", err)
	}

	out := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
