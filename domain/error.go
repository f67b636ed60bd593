// Package domain defines error types for the product catalog.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ProductNotFoundError is returned when a product with the given ID is not found
type ProductNotFoundError struct {
	ProductID string
}

// Error implements the error interface for ProductNotFoundError
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: id=%s", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *ProductNotFoundError) Is(target error) bool {
	_, ok := target.(*ProductNotFoundError)
	return ok
}

// DuplicateProductError is returned when attempting to create a product with an existing ID
type DuplicateProductError struct {
	ProductID string
}

// Error implements the error interface for DuplicateProductError
func (e *DuplicateProductError) Error() string {
	return fmt.Sprintf("duplicate product: id=%s already exists", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *DuplicateProductError) Is(target error) bool {
	_, ok := target.(*DuplicateProductError)
	return ok
}

// ValidationError is returned when a candidate product has field-level
// errors. It never reaches the repository.
type ValidationError struct {
	Fields FieldErrors
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Fields[k]))
	}
	return "invalid product: " + strings.Join(parts, ", ")
}

// Is allows proper error type checking with errors.Is()
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// RemoteFailureError covers transport failures and server errors that are
// neither a not-found nor a conflict.
type RemoteFailureError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface for RemoteFailureError
func (e *RemoteFailureError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("remote %s failed: status=%d, message=%s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("remote %s failed: status=%d", e.Op, e.StatusCode)
	}
}

// Unwrap exposes the transport error, if any.
func (e *RemoteFailureError) Unwrap() error {
	return e.Err
}

// Is allows proper error type checking with errors.Is()
func (e *RemoteFailureError) Is(target error) bool {
	_, ok := target.(*RemoteFailureError)
	return ok
}

// Helper functions for creating errors with context

// NewProductNotFoundError creates a new ProductNotFoundError
func NewProductNotFoundError(productID string) error {
	return &ProductNotFoundError{ProductID: productID}
}

// NewDuplicateProductError creates a new DuplicateProductError
func NewDuplicateProductError(productID string) error {
	return &DuplicateProductError{ProductID: productID}
}

// NewValidationError creates a new ValidationError
func NewValidationError(fields FieldErrors) error {
	return &ValidationError{Fields: fields}
}

// NewRemoteFailureError creates a new RemoteFailureError
func NewRemoteFailureError(op string, statusCode int, message string, err error) error {
	return &RemoteFailureError{Op: op, StatusCode: statusCode, Message: message, Err: err}
}

// Type assertion helpers for use with errors.As()

// IsProductNotFoundError checks if an error is a ProductNotFoundError
func IsProductNotFoundError(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}

// IsDuplicateProductError checks if an error is a DuplicateProductError
func IsDuplicateProductError(err error) bool {
	var dpe *DuplicateProductError
	return errors.As(err, &dpe)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemoteFailureError checks if an error is a RemoteFailureError
func IsRemoteFailureError(err error) bool {
	var rfe *RemoteFailureError
	return errors.As(err, &rfe)
}
