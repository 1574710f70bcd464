package appointments

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the appointment does not exist for the tenant.
	ErrNotFound = errors.New("appointments: not found")
	// ErrInvalidStatus is returned for statuses outside the lifecycle.
	ErrInvalidStatus = errors.New("appointments: invalid status")
	// ErrMissingConfirmedTime is returned when confirming without any time.
	ErrMissingConfirmedTime = errors.New("appointments: confirmed appointments need a time")
	// ErrInvalidRequest covers missing required fields.
	ErrInvalidRequest = errors.New("appointments: invalid request")
)

// exclusionViolation is the SQLSTATE raised by appointments_no_overlap.
const exclusionViolation = "23P01"

// IsConflict reports whether err came from the overlap exclusion constraint.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}
