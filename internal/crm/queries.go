package crm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sort orders a listing by one whitelisted field.
type Sort struct {
	Field string
	Desc  bool
}

var (
	CustomerSortFields = []string{"id", "name", "email", "phone", "created_at", "updated_at"}
	ProductSortFields  = []string{"id", "name", "price", "stock", "created_at", "updated_at"}
	OrderSortFields    = []string{"id", "customer_id", "order_date", "total_amount", "created_at", "updated_at"}
)

// ParseSort reads "field" or "-field". Empty input sorts by created_at.
func ParseSort(raw string, allowed []string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Sort{Field: "created_at"}, nil
	}
	s := Sort{Field: raw}
	if strings.HasPrefix(raw, "-") {
		s = Sort{Field: raw[1:], Desc: true}
	}
	for _, f := range allowed {
		if f == s.Field {
			return s, nil
		}
	}
	return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSort, raw)
}

func (s *Service) ListCustomers(ctx context.Context, sort string) ([]Customer, error) {
	srt, err := ParseSort(sort, CustomerSortFields)
	if err != nil {
		return nil, err
	}
	return s.Store.ListCustomers(ctx, srt)
}

func (s *Service) ListProducts(ctx context.Context, sort string) ([]Product, error) {
	srt, err := ParseSort(sort, ProductSortFields)
	if err != nil {
		return nil, err
	}
	return s.Store.ListProducts(ctx, srt)
}

func (s *Service) ListOrders(ctx context.Context, sort string) ([]Order, error) {
	srt, err := ParseSort(sort, OrderSortFields)
	if err != nil {
		return nil, err
	}
	return s.Store.ListOrders(ctx, srt)
}

func (s *Service) OrdersSince(ctx context.Context, since time.Time) ([]RecentOrder, error) {
	return s.Store.OrdersSince(ctx, since)
}
