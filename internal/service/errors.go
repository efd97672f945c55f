package service

import (
	"errors"
	"fmt"

	"bakery-ops/internal/repository"

	"github.com/google/uuid"
)

// ValidationError reports input that breaks a business rule. Nothing has
// been changed when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a product or order id that does not exist
type NotFoundError struct {
	Resource string
	ID       uuid.UUID
}

func (e *NotFoundError) Error() string {
	switch e.Resource {
	case "product":
		return fmt.Sprintf("Product not found: %s", e.ID)
	case "order":
		return "Order not found"
	default:
		return fmt.Sprintf("%s not found", e.Resource)
	}
}

// InsufficientStockError is the ValidationError raised when an order line
// asks for more units than the product has
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s (available: %d)", e.ProductName, e.Available)
}

// Is lets callers match the repository sentinel with errors.Is
func (e *InsufficientStockError) Is(target error) bool {
	return target == repository.ErrInsufficientStock
}

// IsValidation reports whether err should be answered as a bad request
func IsValidation(err error) bool {
	var validationErr *ValidationError
	var stockErr *InsufficientStockError
	return errors.As(err, &validationErr) || errors.As(err, &stockErr)
}

// IsNotFound reports whether err names a missing product or order
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}
