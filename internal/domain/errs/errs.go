package errs

import "fmt"

// ValidationError reports missing or out-of-range input, including branch
// constraint violations. The message is safe to surface to API callers.
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

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports an officer acting outside their branch.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func Authorization(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func NotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStateError reports an illegal lifecycle operation, such as a
// forbidden status transition or extending a terminal loan.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

func InvalidState(message string) *InvalidStateError {
	return &InvalidStateError{Message: message}
}

func InvalidStatef(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// BalanceExceededError reports a payment that would push a loan's total
// paid above its total amount.
type BalanceExceededError struct {
	Message string
}

func (e *BalanceExceededError) Error() string {
	return e.Message
}

func BalanceExceeded(message string) *BalanceExceededError {
	return &BalanceExceededError{Message: message}
}

// ConflictError reports an optimistic-concurrency version clash on a loan
// row. Callers may reload and retry.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Conflict(message string) *ConflictError {
	return &ConflictError{Message: message}
}
