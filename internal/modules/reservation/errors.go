package reservation

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrResourceConflict = errors.New("resource conflict")

	ErrVehicleNotAssigned = fmt.Errorf("%w: reservation has no vehicle assigned", ErrInvalidArgument)
)

// NotFoundError names the missing record.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// CapacityError reports a passenger count above the vehicle capacity.
type CapacityError struct {
	Requested int
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("passenger count %d exceeds capacity %d", e.Requested, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ConflictError reports a resource already booked on a service day.
type ConflictError struct {
	Kind       ResourceKind
	ResourceID string
	Day        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s already booked on %s", e.Kind, e.ResourceID, e.Day)
}

func (e *ConflictError) Unwrap() error { return ErrResourceConflict }

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
