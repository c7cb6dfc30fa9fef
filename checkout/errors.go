package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCartNotFound     = errors.New("cart not found")
	ErrAddressNotFound  = errors.New("address not found")
	ErrZoneNotFound     = errors.New("delivery zone not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMissingGuestData = errors.New("missing guest checkout data")
	ErrCheckoutBusy     = errors.New("checkout already in progress for this cart")
)

// ValidationError reports malformed or missing input; nothing has been written.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError wraps one of the ErrXxxNotFound sentinels with the lookup key.
type NotFoundError struct {
	Err error
	Key any
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Err, e.Key)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func notFound(err error, key any) error {
	return &NotFoundError{Err: err, Key: key}
}

// StockUnavailableError carries every shortage found in one pass.
type StockUnavailableError struct {
	Items []OutOfStockEntry
}

func (e *StockUnavailableError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, it.Message())
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// ExternalServiceError is a failed call to the payment gateway or mail server.
// Critical failures abort the request.
type ExternalServiceError struct {
	Service  string
	OrderID  uint
	Critical bool
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
