package repository

import (
	"errors"
	"strings"

	"charterdesk/internal/database"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate key")
)

// UniqueViolationError names the reservation column whose per-day uniqueness
// was violated ("vehicle_id" or "driver_id"). Column is empty when the
// violated constraint is not one of the resource-day indexes.
type UniqueViolationError struct {
	Column string
	Err    error
}

func (e *UniqueViolationError) Error() string {
	if e.Column == "" {
		return "unique constraint violated: " + e.Err.Error()
	}
	return "unique constraint violated on " + e.Column
}

func (e *UniqueViolationError) Is(target error) bool { return target == ErrDuplicate }

func (e *UniqueViolationError) Unwrap() error { return e.Err }

// translateError converts driver-specific failures into the repository's
// error vocabulary. Unknown errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return err
		}
		switch pgErr.ConstraintName {
		case database.VehicleDayIndex:
			return &UniqueViolationError{Column: "vehicle_id", Err: err}
		case database.DriverDayIndex:
			return &UniqueViolationError{Column: "driver_id", Err: err}
		}
		return &UniqueViolationError{Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || isSQLiteUnique(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "reservations.vehicle_id"):
			return &UniqueViolationError{Column: "vehicle_id", Err: err}
		case strings.Contains(msg, "reservations.driver_id"):
			return &UniqueViolationError{Column: "driver_id", Err: err}
		}
		return &UniqueViolationError{Err: err}
	}
	return err
}

func isSQLiteUnique(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
