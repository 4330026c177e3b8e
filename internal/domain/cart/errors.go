// internal/domain/cart/errors.go
package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrUserDataMissing is returned when no customer is identified
	ErrUserDataMissing = errors.New("customer data not found, please sign in")

	// ErrLineNotFound is returned when a line reference matches nothing in the cart
	ErrLineNotFound = errors.New("item not found in cart")

	// ErrEmptyCart is returned when checking out a cart without lines
	ErrEmptyCart = errors.New("cart is empty")
)

// GatewayError is returned when the backend answered with success=false
type GatewayError struct {
	Op      string
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// TransportError is returned when the backend could not be reached.
// Message is safe to show to users; Err keeps the cause.
type TransportError struct {
	Op      string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when caller input is unusable
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
