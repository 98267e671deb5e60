package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is idempotent. The unique index on lower(email) is the authoritative
// duplicate-email guard; application pre-checks only reject early.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL CHECK (btrim(name) <> ''),
	email      VARCHAR(254) NOT NULL,
	phone      VARCHAR(50),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS customers_email_lower_key ON customers (lower(email));

CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	price      NUMERIC(12,2) NOT NULL CHECK (price > 0),
	stock      INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id           TEXT PRIMARY KEY,
	customer_id  TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
	order_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
	total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_order_date_idx ON orders (order_date);

CREATE TABLE IF NOT EXISTS order_products (
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL REFERENCES products(id),
	position   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (order_id, product_id)
);
`

func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	return err
}
