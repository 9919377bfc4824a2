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

	domain "github.com/emartlabs/fulfillment/internal/domain/invoice"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type invoiceRow struct {
	ID          string          `db:"id"`
	CustomerID  string          `db:"customer_id"`
	OrderID     string          `db:"order_id"`
	Items       []byte          `db:"items"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Status      string          `db:"status"`
	DueDate     time.Time       `db:"due_date"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r invoiceRow) toDomain() (*domain.Invoice, error) {
	var items []domain.LineItem
	if err := json.Unmarshal(r.Items, &items); err != nil {
		return nil, fmt.Errorf("postgres: decode invoice items: %w", err)
	}
	return &domain.Invoice{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		OrderID:     r.OrderID,
		Items:       items,
		TotalAmount: r.TotalAmount,
		Status:      domain.Status(r.Status),
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *domain.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("postgres: encode invoice items: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, customer_id, order_id, items, total_amount, status, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.CustomerID, inv.OrderID, items, inv.TotalAmount, string(inv.Status),
		inv.DueDate, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM invoices WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get invoice: %w", err)
	}
	return row.toDomain()
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, due_date = $2, updated_at = $3 WHERE id = $4`,
		string(inv.Status), inv.DueDate, inv.UpdatedAt, inv.ID)
	if err != nil {
		return fmt.Errorf("postgres: update invoice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update invoice: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Invoice, error) {
	query := `SELECT * FROM invoices`
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

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("postgres: list invoices: %w", err)
	}

	out := make([]*domain.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
