package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/emartlabs/fulfillment/internal/domain/order"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID              string          `db:"id"`
	CustomerID      string          `db:"customer_id"`
	Items           []byte          `db:"items"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	ShippingAddress string          `db:"shipping_address"`
	PaymentMethod   string          `db:"payment_method"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (r orderRow) toDomain() (*domain.Order, error) {
	var items []domain.LineItem
	if err := json.Unmarshal(r.Items, &items); err != nil {
		return nil, fmt.Errorf("postgres: decode order items: %w", err)
	}
	return &domain.Order{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		Items:           items,
		TotalAmount:     r.TotalAmount,
		Status:          domain.Status(r.Status),
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   r.PaymentMethod,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("postgres: encode order items: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, items, total_amount, status, payment_status,
			shipping_address, payment_method, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.CustomerID, items, o.TotalAmount, string(o.Status), string(o.PaymentStatus),
		o.ShippingAddress, o.PaymentMethod, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	return row.toDomain()
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("postgres: encode order items: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET items = $1, total_amount = $2, status = $3, payment_status = $4,
			shipping_address = $5, payment_method = $6, updated_at = $7
		 WHERE id = $8`,
		items, o.TotalAmount, string(o.Status), string(o.PaymentStatus),
		o.ShippingAddress, o.PaymentMethod, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Order, error) {
	query := `SELECT * FROM orders`
	var conds []string
	var args []any

	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		conds = append(conds, "customer_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if f.PaymentStatus != "" {
		args = append(args, string(f.PaymentStatus))
		conds = append(conds, "payment_status = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
