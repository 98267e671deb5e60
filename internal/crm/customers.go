package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EmailExists reports whether a customer already uses email, ignoring case.
// It always reads current state; the store's unique index is the real guard.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.Store.EmailExists(ctx, normalizeEmail(email))
}

func validateCustomer(in CustomerInput) FieldErrors {
	var errs FieldErrors
	if !nonEmptyName(in.Name) {
		errs.Add("name", "name is required")
	}
	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs.Add("email", "email is required")
	case !validEmailShape(email):
		errs.Add("email", "invalid email format")
	}
	if !validPhoneShape(in.Phone) {
		errs.Add("phone", "invalid phone format; use +1234567890, 123-456-7890 or 7-15 digits")
	}
	return errs
}

// checkCustomer runs the shape rules and, when the email is well formed, the
// uniqueness lookup against q. All violations are returned together.
func checkCustomer(ctx context.Context, q Queries, in CustomerInput) (FieldErrors, error) {
	errs := validateCustomer(in)
	if errs.Has("email") {
		return errs, nil
	}
	exists, err := q.EmailExists(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		errs.Add("email", ErrDuplicateEmail.Error())
	}
	return errs, nil
}

func (s *Service) newCustomer(in CustomerInput) *Customer {
	now := s.now()
	return &Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateCustomer validates then persists one customer. Validation and
// conflict problems come back in the result; only infrastructure failures
// are returned as error.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*CustomerResult, error) {
	errs, err := checkCustomer(ctx, s.Store, in)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return &CustomerResult{Message: "Customer validation failed.", Errors: errs}, nil
	}

	c := s.newCustomer(in)
	if err := s.Store.InsertCustomer(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// lost the race against a concurrent create
			return &CustomerResult{
				Message: "Customer validation failed.",
				Errors:  FieldErrors{{Field: "email", Message: ErrDuplicateEmail.Error()}},
			}, nil
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	s.publish(ctx, EventCustomerCreated, c.ID, c)
	return &CustomerResult{
		Success:  true,
		Message:  fmt.Sprintf("Customer %s created.", c.Name),
		Errors:   FieldErrors{},
		Customer: c,
	}, nil
}
