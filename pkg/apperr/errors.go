// Package apperr defines the typed failures returned by the fulfillment core.
//
// Callers match a failure with errors.Is against one of the sentinel kinds:
//
//	if errors.Is(err, apperr.ErrInsufficientStock) { ... }
//
// An *Error keeps both its kind and the underlying cause in the Unwrap chain.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyOrder          = errors.New("empty order")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNoWarehouse         = errors.New("no warehouse assigned")
	ErrValidation          = errors.New("validation failed")
)

// Error is a classified failure.
type Error struct {
	Kind    error
	Entity  string
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != "" {
			b.WriteString(" ")
			b.WriteString(e.ID)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing entity.
func NotFound(entity string, id any) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: fmt.Sprint(id)}
}

// InvalidTransition reports a state machine rule violation.
func InvalidTransition(entity string, id any, from, action string) *Error {
	return &Error{
		Kind:    ErrInvalidTransition,
		Entity:  entity,
		ID:      fmt.Sprint(id),
		Message: fmt.Sprintf("cannot %s from status %q", action, from),
	}
}

// InsufficientStock reports a failed availability check.
func InsufficientStock(productID, warehouseID any, requested, available fmt.Stringer) *Error {
	return &Error{
		Kind:   ErrInsufficientStock,
		Entity: "product",
		ID:     fmt.Sprint(productID),
		Message: fmt.Sprintf("warehouse %v: requested %s, available %s",
			warehouseID, requested, available),
	}
}

// EmptyOrder reports an order without items.
func EmptyOrder(entity string, id any) *Error {
	return &Error{Kind: ErrEmptyOrder, Entity: entity, ID: fmt.Sprint(id), Message: "order has no items"}
}

// NoWarehouse reports an order without a warehouse assignment.
func NoWarehouse(entity string, id any) *Error {
	return &Error{Kind: ErrNoWarehouse, Entity: entity, ID: fmt.Sprint(id)}
}

// ConstraintViolation reports a uniqueness or integrity failure.
func ConstraintViolation(message string, cause error) *Error {
	return &Error{Kind: ErrConstraintViolation, Message: message, Err: cause}
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the sentinel kind of err, or nil when it is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrInvalidTransition,
		ErrInsufficientStock,
		ErrEmptyOrder,
		ErrConstraintViolation,
		ErrNoWarehouse,
		ErrValidation,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
