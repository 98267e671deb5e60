package crm

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrInvalidSort    = errors.New("invalid sort field")
)

// FieldError describes one validation failure. It is never persisted.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every violation of a request instead of stopping at
// the first one.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Message: msg})
}

func (fe *FieldErrors) Addf(field, format string, args ...any) {
	fe.Add(field, fmt.Sprintf(format, args...))
}

// Prefixed returns a copy with every field path rooted at prefix,
// e.g. "customers[2]" + "email" -> "customers[2].email".
func (fe FieldErrors) Prefixed(prefix string) FieldErrors {
	out := make(FieldErrors, 0, len(fe))
	for _, e := range fe {
		field := prefix
		if e.Field != "" {
			field = prefix + "." + e.Field
		}
		out = append(out, FieldError{Field: field, Message: e.Message})
	}
	return out
}

// Has reports whether any error targets field.
func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// rejected aborts a transaction when request validation fails inside it.
type rejected struct{ errs FieldErrors }

func (r *rejected) Error() string {
	return fmt.Sprintf("rejected: %d field error(s)", len(r.errs))
}
