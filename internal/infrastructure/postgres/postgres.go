package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema is applied at startup. Records mirror the domain entities; order and
// invoice line items are embedded documents, not independently addressable.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	price       NUMERIC(18,4) NOT NULL CHECK (price >= 0),
	stock       INTEGER NOT NULL CHECK (stock >= 0),
	status      TEXT NOT NULL,
	supplier_id TEXT NOT NULL DEFAULT '',
	barcode     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	customer_id      TEXT NOT NULL,
	items            JSONB NOT NULL,
	total_amount     NUMERIC(18,4) NOT NULL,
	status           TEXT NOT NULL,
	payment_status   TEXT NOT NULL,
	shipping_address TEXT NOT NULL DEFAULT '',
	payment_method   TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id, created_at DESC);

CREATE TABLE IF NOT EXISTS payments (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL,
	order_id    TEXT NOT NULL DEFAULT '',
	amount      NUMERIC(18,4) NOT NULL,
	method      TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments (customer_id, created_at DESC);

CREATE TABLE IF NOT EXISTS invoices (
	id           TEXT PRIMARY KEY,
	customer_id  TEXT NOT NULL,
	order_id     TEXT NOT NULL DEFAULT '',
	items        JSONB NOT NULL,
	total_amount NUMERIC(18,4) NOT NULL,
	status       TEXT NOT NULL,
	due_date     TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Connect opens the database and applies the schema.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	db.SetMaxOpenConns(10)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return db, nil
}
