// Package shared contains common domain types and errors that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Infrastructure errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrInternal           = errors.New("internal error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "achievement", "leaderboard", "ingestion"
	Op      string // Operation that failed, e.g., "Award", "Upsert"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Achievement domain errors
var (
	ErrAchievementNotFound   = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrAchievementAwarded    = NewDomainError("achievement", "Award", ErrAlreadyExists, "achievement already awarded to player")
	ErrInvalidAchievementID  = NewDomainError("achievement", "Validate", ErrInvalidID, "invalid achievement ID")
	ErrInvalidPlayerID       = NewDomainError("achievement", "Validate", ErrInvalidID, "invalid player ID")
	ErrInvalidRuleType       = NewDomainError("achievement", "Validate", ErrInvalidInput, "invalid rule type")
	ErrInvalidRuleValue      = NewDomainError("achievement", "DecodeRule", ErrInvalidFormat, "invalid rule value")
	ErrInvalidEventType      = NewDomainError("achievement", "Validate", ErrInvalidInput, "invalid event type")
	ErrEmptyAchievementTitle = NewDomainError("achievement", "Validate", ErrEmptyValue, "achievement title is required")
)

// Leaderboard domain errors
var (
	ErrLeaderboardUserNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard user not found")
	ErrInvalidUserID           = NewDomainError("leaderboard", "Validate", ErrInvalidID, "invalid user ID")
	ErrEmptyUsername           = NewDomainError("leaderboard", "Validate", ErrEmptyValue, "username is required")
	ErrNegativePoints          = NewDomainError("leaderboard", "Validate", ErrNegativeValue, "points cannot be negative")
	ErrNegativePuzzles         = NewDomainError("leaderboard", "Validate", ErrNegativeValue, "puzzles solved cannot be negative")
	ErrInvalidPage             = NewDomainError("leaderboard", "GetPage", ErrValueOutOfRange, "invalid page or page size")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
