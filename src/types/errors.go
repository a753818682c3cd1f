package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context.
var (
	ErrForbidden           = errors.New("forbidden")
	ErrBookingNotReady     = errors.New("booking is not ready for settlement")
	ErrDuplicatePayment    = errors.New("a pending payment already exists for this booking")
	ErrGatewayTimeout      = errors.New("payment gateway timed out")
	ErrWebhookUnverifiable = errors.New("webhook signature could not be verified")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid value for field %q", e.Field)
	}
	return fmt.Sprintf("invalid value for field %q: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [%s] not found", e.Entity, e.ID)
}

func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking cannot transition from %s to %s", e.From, e.To)
}

type PaymentFailedError struct {
	Reason string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed: %s", e.Reason)
}
