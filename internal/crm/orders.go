package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrder resolves the customer and every requested product, then writes
// the order, its product links and the computed total in one transaction.
// Any resolution problem aborts before the first write.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*OrderResult, error) {
	var errs FieldErrors
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		errs.Add("customer_id", "customer_id is required")
	}
	ids := uniqueIDs(in.ProductIDs)
	if len(ids) == 0 {
		errs.Add("product_ids", "at least one product is required")
	}
	if len(errs) > 0 {
		return &OrderResult{Message: "Order validation failed.", Errors: errs}, nil
	}

	now := s.now()
	orderDate := now
	if in.OrderDate != nil {
		orderDate = in.OrderDate.UTC()
	}

	var order *Order
	err := s.Store.WithTx(ctx, func(q Queries) error {
		var errs FieldErrors
		if _, err := q.GetCustomer(ctx, customerID); errors.Is(err, ErrNotFound) {
			errs.Addf("customer_id", "customer %s not found", customerID)
		} else if err != nil {
			return fmt.Errorf("get customer: %w", err)
		}

		products, err := q.GetProducts(ctx, ids)
		if err != nil {
			return fmt.Errorf("get products: %w", err)
		}
		if len(products) != len(ids) {
			errs.Addf("product_ids", "products not found: %s", strings.Join(missingIDs(ids, products), ", "))
		}
		if len(errs) > 0 {
			return &rejected{errs: errs}
		}

		o := &Order{
			ID:          uuid.NewString(),
			CustomerID:  customerID,
			ProductIDs:  ids,
			OrderDate:   orderDate,
			TotalAmount: decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := q.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := q.AttachProducts(ctx, o.ID, ids); err != nil {
			return fmt.Errorf("attach products: %w", err)
		}
		o.TotalAmount = orderTotal(products)
		if err := q.SetOrderTotal(ctx, o.ID, o.TotalAmount); err != nil {
			return fmt.Errorf("set order total: %w", err)
		}
		order = o
		return nil
	})

	var rej *rejected
	if errors.As(err, &rej) {
		return &OrderResult{Message: "Order validation failed.", Errors: rej.errs}, nil
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventOrderCreated, order.ID, order)
	return &OrderResult{
		Success: true,
		Message: fmt.Sprintf("Order created with total %s.", order.TotalAmount.StringFixed(MoneyPlaces)),
		Errors:  FieldErrors{},
		Order:   order,
	}, nil
}

// orderTotal sums prices in fixed-point decimal.
func orderTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total.Round(MoneyPlaces)
}

// uniqueIDs trims and dedups ids, keeping first-seen order. Blank ids are
// kept so they surface as missing rather than being dropped.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(requested []string, found []Product) []string {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
