package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/sales-invoices/internal/validation"
)

// Error taxonomy surfaced by the services. Everything else bubbling out of a
// service call is a store failure and gets a generic 500 at the edge.

// ValidationError reports malformed request fields. Raised before any lookup
// or write happens.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "validation failed" }

// NotFoundError names the entity and business key that did not resolve.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// RuleError is a business-rule violation (e.g. credit limit exceeded). The
// message is safe to show to callers.
type RuleError struct {
	Msg string
}

func (e *RuleError) Error() string { return e.Msg }

func invalid(v validation.Violations) error { return &ValidationError{Violations: v} }

func notFound(resource, key string) error { return &NotFoundError{Resource: resource, Key: key} }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
