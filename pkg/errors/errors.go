package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeAddressNotFound indicates every geocoding variant was exhausted
	ErrorTypeAddressNotFound ErrorType = "ADDRESS_NOT_FOUND"

	// ErrorTypeProviderUnavailable indicates all POI endpoints soft-failed
	ErrorTypeProviderUnavailable ErrorType = "PROVIDER_UNAVAILABLE"

	// ErrorTypeNoCandidates indicates providers returned venues but filtering
	// removed all of them
	ErrorTypeNoCandidates ErrorType = "NO_CANDIDATES_AFTER_FILTER"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with the session state
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// AddressNotFoundError carries the original input so the UI can echo it back
type AddressNotFoundError struct {
	Address string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("%s: no geocoding result for %q", ErrorTypeAddressNotFound, e.Address)
}

// NewAddressNotFoundError creates an address-not-found error
func NewAddressNotFoundError(address string) *AddressNotFoundError {
	return &AddressNotFoundError{Address: address}
}

// AttemptFailure records why a single endpoint attempt was classified as a
// soft failure
type AttemptFailure struct {
	Endpoint string
	Reason   string
}

// ProviderUnavailableError aggregates the soft failures of every endpoint
// tried for a search; endpoint-level network and parse errors never cross the
// core boundary on their own.
type ProviderUnavailableError struct {
	Provider string
	Attempts []AttemptFailure
}

func (e *ProviderUnavailableError) Error() string {
	reasons := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		reasons[i] = fmt.Sprintf("%s: %s", a.Endpoint, a.Reason)
	}
	return fmt.Sprintf("%s: %s exhausted %d endpoints (%s)",
		ErrorTypeProviderUnavailable, e.Provider, len(e.Attempts), strings.Join(reasons, "; "))
}

// NewProviderUnavailableError creates a provider-unavailable error
func NewProviderUnavailableError(provider string, attempts []AttemptFailure) *ProviderUnavailableError {
	return &ProviderUnavailableError{Provider: provider, Attempts: attempts}
}

// NoCandidatesError indicates the provider returned venues but all of them
// were filtered out; recoverable by widening the radius or changing inputs
type NoCandidatesError struct {
	Found int
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("%s: %d venues found, none passed filtering", ErrorTypeNoCandidates, e.Found)
}

// NewNoCandidatesError creates a no-candidates error
func NewNoCandidatesError(found int) *NoCandidatesError {
	return &NoCandidatesError{Found: found}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
