package domain

import "errors"

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Aid request invariants
var (
	ErrInvalidAssistanceType      = errors.New("assistance type must be monetary, service or both")
	ErrAmountRequired             = errors.New("amount must be greater than 0")
	ErrServiceDescriptionRequired = errors.New("service description is required")
	ErrUnexpectedAmount           = errors.New("service requests cannot carry an amount")
	ErrInvalidTransition          = errors.New("invalid status transition")
)
