package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func validateProduct(in ProductInput) FieldErrors {
	var errs FieldErrors
	if !nonEmptyName(in.Name) {
		errs.Add("name", "name is required")
	}
	switch {
	case !validPrice(in.Price):
		errs.Add("price", "price must be greater than 0")
	case !validPricePrecision(in.Price):
		errs.Add("price", "price must have at most 2 decimal places and 10 integer digits")
	}
	switch {
	case in.Stock < 0:
		errs.Add("stock", "stock cannot be negative")
	case !validStock(in.Stock):
		errs.Addf("stock", "stock cannot exceed %d", MaxStock)
	}
	return errs
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*ProductResult, error) {
	if errs := validateProduct(in); len(errs) > 0 {
		return &ProductResult{Message: "Product validation failed.", Errors: errs}, nil
	}

	now := s.now()
	p := &Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price.Round(MoneyPlaces),
		Stock:     in.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.InsertProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	s.publish(ctx, EventProductCreated, p.ID, p)
	return &ProductResult{
		Success: true,
		Message: fmt.Sprintf("Product %s created.", p.Name),
		Errors:  FieldErrors{},
		Product: p,
	}, nil
}
