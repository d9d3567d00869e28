package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking service.
var (
	ErrSlotFull             = errors.New("slot full")
	ErrPersistenceCorrupt   = errors.New("persisted state corrupt")
	ErrUnknownVenue         = errors.New("unknown venue")
	ErrInvalidVenueID       = errors.New("invalid venue id")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidTime          = errors.New("invalid time")
	ErrInvalidPartySize     = errors.New("invalid party size")
	ErrInvalidContactName   = errors.New("invalid contact name")
	ErrInvalidPhone         = errors.New("invalid phone")
	ErrInvalidPoints        = errors.New("invalid points")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// SlotFullError reports a slot that already holds CapacityPerSlot reservations.
type SlotFullError struct {
	VenueID VenueID
	Date    SlotDate
	Time    SlotTime
}

func (slotFullError SlotFullError) Error() string {
	return fmt.Sprintf("%v: venue %d on %s at %s", ErrSlotFull, slotFullError.VenueID, slotFullError.Date, slotFullError.Time)
}

// Unwrap exposes ErrSlotFull to errors.Is.
func (slotFullError SlotFullError) Unwrap() error {
	return ErrSlotFull
}

// PersistenceCorruptError reports a stored value that could not be decoded.
type PersistenceCorruptError struct {
	Key StorageKey
	Err error
}

func (corruptError PersistenceCorruptError) Error() string {
	return fmt.Sprintf("%v: key %q: %v", ErrPersistenceCorrupt, corruptError.Key, corruptError.Err)
}

// Unwrap exposes both ErrPersistenceCorrupt and the decode failure.
func (corruptError PersistenceCorruptError) Unwrap() []error {
	return []error{ErrPersistenceCorrupt, corruptError.Err}
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
