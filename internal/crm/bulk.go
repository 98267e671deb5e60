package crm

import (
	"context"
	"errors"
	"fmt"
)

// BulkCreateCustomers creates customers one by one, left to right. Each item
// is checked against what is persisted at the moment it is processed and
// written in its own transaction, so a failing item never undoes a sibling.
// Items are not compared with each other.
func (s *Service) BulkCreateCustomers(ctx context.Context, items []CustomerInput) (*BulkCustomerResult, error) {
	res := &BulkCustomerResult{
		Errors:           FieldErrors{},
		CreatedCustomers: []Customer{},
	}

	for i, in := range items {
		prefix := fmt.Sprintf("customers[%d]", i)
		c, errs := s.createBulkItem(ctx, in)
		if len(errs) > 0 {
			res.Errors = append(res.Errors, errs.Prefixed(prefix)...)
			continue
		}
		res.CreatedCustomers = append(res.CreatedCustomers, *c)
		s.publish(ctx, EventCustomerCreated, c.ID, c)
	}

	failed := len(items) - len(res.CreatedCustomers)
	res.Success = len(res.Errors) == 0
	res.Message = fmt.Sprintf("Created %d of %d customers; %d failed.", len(res.CreatedCustomers), len(items), failed)
	return res, nil
}

func (s *Service) createBulkItem(ctx context.Context, in CustomerInput) (*Customer, FieldErrors) {
	var created *Customer
	err := s.Store.WithTx(ctx, func(q Queries) error {
		errs, err := checkCustomer(ctx, q, in)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return &rejected{errs: errs}
		}
		c := s.newCustomer(in)
		if err := q.InsertCustomer(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})

	var rej *rejected
	switch {
	case err == nil:
		return created, nil
	case errors.As(err, &rej):
		return nil, rej.errs
	case errors.Is(err, ErrDuplicateEmail):
		return nil, FieldErrors{{Field: "email", Message: ErrDuplicateEmail.Error()}}
	default:
		s.logger().Warn("bulk customer item failed", "email", in.Email, "err", err)
		return nil, FieldErrors{{Message: fmt.Sprintf("could not save customer: %v", err)}}
	}
}
