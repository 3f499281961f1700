// internal/common/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"
)

// ===================================================================
// CUSTOM ERROR TYPES
// ===================================================================

// ValidationError 형식이 잘못되었거나 그래프가 맞지 않는 오더/액션.
// 상태를 바꾸기 전에 거부된다.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for field %s (value: %s): %s", e.Field, e.Value, e.Message)
}

// PreconditionError 현재 차량 상태에서 실행할 수 없는 액션
type PreconditionError struct {
	ActionType string
	Message    string
	Cause      error
}

func (e *PreconditionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("precondition failed for %s: %s (caused by: %v)", e.ActionType, e.Message, e.Cause)
	}
	return fmt.Sprintf("precondition failed for %s: %s", e.ActionType, e.Message)
}

func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

// ConcurrencyViolation 이미 대체되었거나 실행된 오더/업데이트를 참조하는 제출
type ConcurrencyViolation struct {
	OrderID  string
	UpdateID int
	Message  string
}

func (e *ConcurrencyViolation) Error() string {
	return fmt.Sprintf("order %s update %d rejected: %s", e.OrderID, e.UpdateID, e.Message)
}

// ===================================================================
// ERROR CONSTRUCTORS
// ===================================================================

// NewValidationError creates a new validation error
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(actionType, message string, cause error) *PreconditionError {
	return &PreconditionError{ActionType: actionType, Message: message, Cause: cause}
}

// NewConcurrencyViolation creates a new concurrency violation
func NewConcurrencyViolation(orderID string, updateID int, message string) *ConcurrencyViolation {
	return &ConcurrencyViolation{OrderID: orderID, UpdateID: updateID, Message: message}
}

// ===================================================================
// ERROR CHECKERS
// ===================================================================

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPreconditionError checks if error is a precondition error
func IsPreconditionError(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

// IsConcurrencyViolation checks if error is a concurrency violation
func IsConcurrencyViolation(err error) bool {
	var target *ConcurrencyViolation
	return errors.As(err, &target)
}
