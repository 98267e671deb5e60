package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits stored for prices and totals.
const MoneyPlaces = 2

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order.TotalAmount is fixed at creation; later price changes do not touch it.
type Order struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	ProductIDs  []string        `json:"product_ids"`
	OrderDate   time.Time       `json:"order_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecentOrder is an order joined with its customer's email.
type RecentOrder struct {
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	OrderDate     time.Time `json:"order_date"`
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type ProductInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type OrderInput struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date,omitempty"`
}

type CustomerResult struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
	Errors   FieldErrors `json:"errors"`
	Customer *Customer   `json:"customer,omitempty"`
}

type BulkCustomerResult struct {
	Success          bool        `json:"success"`
	Message          string      `json:"message"`
	Errors           FieldErrors `json:"errors"`
	CreatedCustomers []Customer  `json:"created_customers"`
}

type ProductResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors"`
	Product *Product    `json:"product,omitempty"`
}

type OrderResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors"`
	Order   *Order      `json:"order,omitempty"`
}
