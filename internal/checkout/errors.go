package checkout

import "fmt"

// ValidationError marks a malformed cart: a missing slug, an empty cart or
// mixed currencies. Handlers map it to a 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// PricingError marks a cart item for which no resolution strategy produced
// a price. Handlers map it to a 400: an unpriceable item is a property of
// the submitted cart, not of the backend.
type PricingError struct {
	Slug string
}

func (e *PricingError) Error() string { return "no price for " + e.Slug }
