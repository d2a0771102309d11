// Package shared holds the error kinds and domain events every FocusGoal
// aggregate uses. It imports nothing outside the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these, and the HTTP layer maps
// kinds to status codes.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrForbidden        = errors.New("forbidden")

	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	ErrStorage            = errors.New("storage error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrLockNotAcquired    = errors.New("lock not acquired")
)

// DomainError carries where an error happened and the message shown to the
// client. errors.Is matches both Kind and the wrapped cause.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *DomainError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError is NewDomainError with an underlying cause.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	de := NewDomainError(domain, op, kind, message)
	de.Err = err
	return de
}

// StorageError wraps a driver or store failure so callers can match ErrStorage.
func StorageError(domain, op string, err error) *DomainError {
	return WrapError(domain, op, ErrStorage, "store operation failed", err)
}

// user
var (
	ErrUserNotFound  = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserExists    = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidUserID = NewDomainError("user", "Validate", ErrInvalidID, "invalid user id")
	ErrNegativeXP    = NewDomainError("user", "AddXP", ErrNegativeValue, "xp delta cannot be negative")
	ErrStatsNotFound = NewDomainError("stats", "Get", ErrNotFound, "stats not found")
)

// goal
var (
	ErrGoalNotFound         = NewDomainError("goal", "Find", ErrNotFound, "goal not found or access denied")
	ErrGoalAlreadyCompleted = NewDomainError("goal", "Complete", ErrAlreadyProcessed, "goal already completed")
	ErrEmptyGoalTitle       = NewDomainError("goal", "Validate", ErrEmptyValue, "goal title is required")
)

// habit
var (
	ErrHabitNotFound    = NewDomainError("habit", "Find", ErrNotFound, "habit not found or access denied")
	ErrEmptyHabitTitle  = NewDomainError("habit", "Validate", ErrEmptyValue, "habit title is required")
	ErrInvalidReminder  = NewDomainError("habit", "Validate", ErrInvalidFormat, "reminder time must be HH:MM")
	ErrInvalidFrequency = NewDomainError("habit", "Validate", ErrInvalidInput, "frequency must be daily or weekly")
)

// focus
var (
	ErrInvalidDuration = NewDomainError("focus", "Validate", ErrValueOutOfRange, "duration must be a positive number of minutes")
)

func isAny(err error, kinds ...error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// IsNotFound also covers ErrForbidden: foreign entities look missing.
func IsNotFound(err error) bool {
	return isAny(err, ErrNotFound, ErrForbidden)
}

// IsAlreadyProcessed reports a repeated state transition or duplicate create.
func IsAlreadyProcessed(err error) bool {
	return isAny(err, ErrAlreadyProcessed, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return isAny(err,
		ErrValidation, ErrInvalidID, ErrInvalidInput, ErrEmptyValue,
		ErrNegativeValue, ErrValueOutOfRange, ErrInvalidFormat)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsRetryable reports transient failures worth a 503.
func IsRetryable(err error) bool {
	return isAny(err, ErrServiceUnavailable, ErrTimeout, ErrLockNotAcquired)
}
