package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/emartlabs/fulfillment/internal/domain/product"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type productRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Price      decimal.Decimal `db:"price"`
	Stock      int             `db:"stock"`
	Status     string          `db:"status"`
	SupplierID string          `db:"supplier_id"`
	Barcode    string          `db:"barcode"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func (r productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:         r.ID,
		Name:       r.Name,
		Price:      r.Price,
		Stock:      r.Stock,
		Status:     domain.Status(r.Status),
		SupplierID: r.SupplierID,
		Barcode:    r.Barcode,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, price, stock, status, supplier_id, barcode, created_at, updated_at
		 FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price, stock, status, supplier_id, barcode, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock,
			status = EXCLUDED.status, supplier_id = EXCLUDED.supplier_id,
			barcode = EXCLUDED.barcode, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Price, p.Stock, string(p.Status), p.SupplierID, p.Barcode,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save product: %w", err)
	}
	return nil
}

// AdjustStock runs the whole batch in one transaction. Each decrement is
// conditioned on the row's stock at commit time (WHERE stock + delta >= 0);
// a miss rolls the transaction back, so concurrent reservations can never
// drive stock negative. Availability status is recomputed in the same
// statement.
func (r *ProductRepository) AdjustStock(ctx context.Context, deltas []domain.StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: adjust stock: begin: %w", err)
	}
	defer tx.Rollback()

	for _, d := range deltas {
		res, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET stock = stock + $1,
			     status = CASE WHEN stock + $1 <= 0 THEN $2 ELSE $3 END,
			     updated_at = $4
			 WHERE id = $5 AND stock + $1 >= 0`,
			d.Delta, string(domain.StatusOutOfStock), string(domain.StatusActive),
			time.Now().UTC(), d.ProductID)
		if err != nil {
			return fmt.Errorf("postgres: adjust stock %s: %w", d.ProductID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("postgres: adjust stock %s: %w", d.ProductID, err)
		}
		if affected == 0 {
			return r.classifyMiss(ctx, tx, d)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: adjust stock: commit: %w", err)
	}
	return nil
}

// classifyMiss distinguishes a vanished product from an insufficient stock
// level for an update that matched no row.
func (r *ProductRepository) classifyMiss(ctx context.Context, tx *sqlx.Tx, d domain.StockDelta) error {
	var row struct {
		Name  string `db:"name"`
		Stock int    `db:"stock"`
	}
	err := tx.GetContext(ctx, &row,
		`SELECT name, stock FROM products WHERE id = $1`, d.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{ProductID: d.ProductID}
	}
	if err != nil {
		return fmt.Errorf("postgres: adjust stock %s: %w", d.ProductID, err)
	}
	return &domain.InsufficientStockError{
		ProductID:   d.ProductID,
		ProductName: row.Name,
		Available:   row.Stock,
		Requested:   -d.Delta,
	}
}
