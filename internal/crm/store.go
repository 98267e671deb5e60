package crm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Queries is the read/write surface the engine needs from storage.
// Implementations return ErrNotFound for unknown identities and
// ErrDuplicateEmail when the store's unique email constraint fires.
type Queries interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	InsertCustomer(ctx context.Context, c *Customer) error
	InsertProduct(ctx context.Context, p *Product) error
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetProducts(ctx context.Context, ids []string) ([]Product, error)

	InsertOrder(ctx context.Context, o *Order) error
	AttachProducts(ctx context.Context, orderID string, productIDs []string) error
	SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error

	LowStockProducts(ctx context.Context, threshold int) ([]Product, error)
	IncrementStock(ctx context.Context, productID string, amount int) (int, error)
	// RaiseStock sets stock to floor only while it is still below floor and
	// reports whether the row changed.
	RaiseStock(ctx context.Context, productID string, floor int) (bool, error)

	ListCustomers(ctx context.Context, sort Sort) ([]Customer, error)
	ListProducts(ctx context.Context, sort Sort) ([]Product, error)
	ListOrders(ctx context.Context, sort Sort) ([]Order, error)
	OrdersSince(ctx context.Context, since time.Time) ([]RecentOrder, error)
}

// Store adds a scoped transaction. WithTx commits when fn returns nil and
// rolls back on any error or panic; nothing fn wrote is visible otherwise.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
}
