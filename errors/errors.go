/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to track or create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional update fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoIndexMap is returned when no index map is found for a type
	ErrNoIndexMap = errors.New("no index map found for type")

	// ErrBinding is returned when a view cannot be bound to a concrete type
	ErrBinding = errors.New("binding failed")

	// ErrTypeMismatch is returned when a value does not have the concrete type a view is bound to
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNarrowing is returned when an enumerated element does not satisfy the view's abstraction
	ErrNarrowing = errors.New("narrowing violation")

	// ErrUnknownMember is returned when a query references a member the element type does not have
	ErrUnknownMember = errors.New("unknown member")

	// ErrUnsupportedExpression is returned when a provider cannot translate a query expression
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// BindingError is raised at bind time when the registry has no collection
// whose rows can be viewed as the requested concrete type, or when that type
// cannot serve the requested abstraction.
type BindingError struct {
	Abstraction string
	Concrete    string
	Reason      string
	Err         error
}

func (e *BindingError) Error() string {
	msg := fmt.Sprintf("binding failed: cannot bind %s to %s", e.Abstraction, e.Concrete)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BindingError) Is(target error) bool {
	return target == ErrBinding
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// TypeMismatchError is raised by a mutation when the argument's runtime type
// is not the concrete type the view was bound to.
type TypeMismatchError struct {
	Operation string
	Expected  string
	Actual    string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s expects %s, got %s", e.Operation, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// NarrowingError is raised when a value produced by the underlying sequence
// does not implement the view's abstraction.
type NarrowingError struct {
	Abstraction string
	Actual      string
	// Index is the position within the enumeration, or -1 for a value
	// returned by a mutation.
	Index       int
}

func (e *NarrowingError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("narrowing violation: value of type %s does not implement %s", e.Actual, e.Abstraction)
	}
	return fmt.Sprintf("narrowing violation: element %d of type %s does not implement %s", e.Index, e.Actual, e.Abstraction)
}

func (e *NarrowingError) Is(target error) bool {
	return target == ErrNarrowing
}

// MemberError reports a member name that cannot be resolved on a type.
type MemberError struct {
	Type   string
	Member string
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("unknown member %q on %s", e.Member, e.Type)
}

func (e *MemberError) Is(target error) bool {
	return target == ErrUnknownMember
}

// UnsupportedExpressionError reports a query node a provider cannot translate.
type UnsupportedExpressionError struct {
	Provider string
	Detail   string
}

func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("%s: unsupported expression: %s", e.Provider, e.Detail)
}

func (e *UnsupportedExpressionError) Is(target error) bool {
	return target == ErrUnsupportedExpression
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewBindingError creates a new BindingError
func NewBindingError(abstraction, concrete, reason string, err error) error {
	return &BindingError{Abstraction: abstraction, Concrete: concrete, Reason: reason, Err: err}
}

// NewTypeMismatchError creates a new TypeMismatchError
func NewTypeMismatchError(operation, expected, actual string) error {
	return &TypeMismatchError{Operation: operation, Expected: expected, Actual: actual}
}

// NewNarrowingError creates a new NarrowingError
func NewNarrowingError(abstraction, actual string, index int) error {
	return &NarrowingError{Abstraction: abstraction, Actual: actual, Index: index}
}

// NewMemberError creates a new MemberError
func NewMemberError(typeName, member string) error {
	return &MemberError{Type: typeName, Member: member}
}

// NewUnsupportedExpressionError creates a new UnsupportedExpressionError
func NewUnsupportedExpressionError(provider, detail string) error {
	return &UnsupportedExpressionError{Provider: provider, Detail: detail}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsBindingError checks if an error is a binding error
func IsBindingError(err error) bool {
	return errors.Is(err, ErrBinding)
}

// IsTypeMismatch checks if an error is a type mismatch error
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsNarrowingError checks if an error is a narrowing violation
func IsNarrowingError(err error) bool {
	return errors.Is(err, ErrNarrowing)
}

// IsUnknownMember checks if an error is an unknown member error
func IsUnknownMember(err error) bool {
	return errors.Is(err, ErrUnknownMember)
}

// IsUnsupportedExpression checks if an error is an unsupported expression error
func IsUnsupportedExpression(err error) bool {
	return errors.Is(err, ErrUnsupportedExpression)
}
