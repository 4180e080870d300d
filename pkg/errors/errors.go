package errors

import (
	"fmt"
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// AuthError indicates that fabric token acquisition failed.
// GatewayMessage carries the provider's error message when one was returned.
type AuthError struct {
	Message        string
	GatewayMessage string
}

func (e *AuthError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("auth error: %s (gateway: %s)", e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("auth error: %s", e.Message)
}

// NewAuthError creates a new auth error
func NewAuthError(message, gatewayMessage string) *AuthError {
	return &AuthError{
		Message:        message,
		GatewayMessage: gatewayMessage,
	}
}

// SigningError indicates that a request could not be signed.
// Key problems are fatal and never retried.
type SigningError struct {
	Message string
	Err     error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("signing error: %s", e.Message)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// NewSigningError creates a new signing error
func NewSigningError(message string, err error) *SigningError {
	return &SigningError{
		Message: message,
		Err:     err,
	}
}

// APIError represents a non-success response from the payment gateway,
// either at the HTTP level (StatusCode != 200) or at the business level
// (result != SUCCESS). The provider's message is passed through.
type APIError struct {
	Code           string
	Message        string
	GatewayMessage string
	StatusCode     int
}

func (e *APIError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s (gateway: %s)", e.Code, e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(code, message, gatewayMessage string, statusCode int) *APIError {
	return &APIError{
		Code:           code,
		Message:        message,
		GatewayMessage: gatewayMessage,
		StatusCode:     statusCode,
	}
}

// NotFoundError indicates a local record lookup miss
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Key:      key,
	}
}

// SecurityError indicates an inbound notification failed signature verification
type SecurityError struct {
	Message string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security error: %s", e.Message)
}

// NewSecurityError creates a new security error
func NewSecurityError(message string) *SecurityError {
	return &SecurityError{
		Message: message,
	}
}
