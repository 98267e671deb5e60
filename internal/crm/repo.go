package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo is the Postgres Store.
type Repo struct {
	*pgQueries
	DB *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{pgQueries: &pgQueries{db: db}, DB: db}
}

func (r *Repo) WithTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if err := fn(&pgQueries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgErr(err)
	}
	return nil
}

type pgQueries struct{ db dbtx }

const uniqueViolation = "23505"

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "customers_email_lower_key" {
		return ErrDuplicateEmail
	}
	return err
}

func (q *pgQueries) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (q *pgQueries) InsertCustomer(ctx context.Context, c *Customer) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO customers(id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
		c.ID, c.Name, c.Email, c.Phone, c.CreatedAt, c.UpdatedAt)
	return mapPgErr(err)
}

func (q *pgQueries) InsertProduct(ctx context.Context, p *Product) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO products(id, name, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
	return err
}

func (q *pgQueries) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := q.db.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), created_at, updated_at
		FROM customers WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetProducts returns the subset of ids that exist, in no particular order.
func (q *pgQueries) GetProducts(ctx context.Context, ids []string) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (q *pgQueries) InsertOrder(ctx context.Context, o *Order) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO orders(id, customer_id, order_date, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.CustomerID, o.OrderDate, o.TotalAmount, o.CreatedAt, o.UpdatedAt)
	return err
}

func (q *pgQueries) AttachProducts(ctx context.Context, orderID string, productIDs []string) error {
	for i, pid := range productIDs {
		if _, err := q.db.Exec(ctx, `
			INSERT INTO order_products(order_id, product_id, position)
			VALUES ($1, $2, $3)`, orderID, pid, i); err != nil {
			return err
		}
	}
	return nil
}

func (q *pgQueries) SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	ct, err := q.db.Exec(ctx, `UPDATE orders SET total_amount=$2, updated_at=now() WHERE id=$1`, orderID, total)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (q *pgQueries) LowStockProducts(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products WHERE stock < $1 ORDER BY id`, threshold)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// IncrementStock is a single-row atomic update; it returns the new stock.
func (q *pgQueries) IncrementStock(ctx context.Context, productID string, amount int) (int, error) {
	var stock int
	err := q.db.QueryRow(ctx, `
		UPDATE products SET stock = LEAST(stock::bigint + $2, 2147483647), updated_at = now()
		WHERE id=$1 RETURNING stock`, productID, amount).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return stock, err
}

func (q *pgQueries) RaiseStock(ctx context.Context, productID string, floor int) (bool, error) {
	ct, err := q.db.Exec(ctx, `
		UPDATE products SET stock=$2, updated_at=now()
		WHERE id=$1 AND stock < $2`, productID, floor)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// orderBy is only ever built from fields that passed ParseSort.
func orderBy(alias string, s Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s%s %s, %sid ASC", alias, s.Field, dir, alias)
}

func (q *pgQueries) ListCustomers(ctx context.Context, s Sort) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), created_at, updated_at
		FROM customers`+orderBy("", s))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *pgQueries) ListProducts(ctx context.Context, s Sort) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, name, price, stock, created_at, updated_at
		FROM products`+orderBy("", s))
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (q *pgQueries) ListOrders(ctx context.Context, s Sort) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.id, o.customer_id, o.order_date, o.total_amount, o.created_at, o.updated_at,
		       COALESCE(array_agg(op.product_id ORDER BY op.position) FILTER (WHERE op.product_id IS NOT NULL), '{}')
		FROM orders o
		LEFT JOIN order_products op ON op.order_id = o.id
		GROUP BY o.id`+orderBy("o.", s))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt, &o.ProductIDs); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (q *pgQueries) OrdersSince(ctx context.Context, since time.Time) ([]RecentOrder, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.id, c.email, o.order_date
		FROM orders o JOIN customers c ON c.id = o.customer_id
		WHERE o.order_date >= $1
		ORDER BY o.order_date, o.id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentOrder
	for rows.Next() {
		var r RecentOrder
		if err := rows.Scan(&r.OrderID, &r.CustomerEmail, &r.OrderDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ Store = (*Repo)(nil)
