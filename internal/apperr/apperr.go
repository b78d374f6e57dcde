// Package apperr defines the error taxonomy shared by the booking core and
// its HTTP surface. Components wrap these sentinels with fmt.Errorf("%w")
// and callers match them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation               = errors.New("validation failed")
	ErrDeadlineExceeded         = errors.New("booking deadline has passed")
	ErrInsufficientAvailability = errors.New("not enough published slots in range")
	ErrSlotAlreadyBooked        = errors.New("slot already booked")
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrStoreUnavailable         = errors.New("store unavailable")
)

// Validation formats a message and wraps ErrValidation.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Store wraps a backing store failure.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// HTTPStatus maps an error to the response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDeadlineExceeded):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientAvailability), errors.Is(err, ErrSlotAlreadyBooked):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for an error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDeadlineExceeded):
		return "deadline_exceeded"
	case errors.Is(err, ErrInsufficientAvailability):
		return "insufficient_availability"
	case errors.Is(err, ErrSlotAlreadyBooked):
		return "slot_already_booked"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

var taxonomy = []error{
	ErrValidation,
	ErrDeadlineExceeded,
	ErrInsufficientAvailability,
	ErrSlotAlreadyBooked,
	ErrNotFound,
	ErrForbidden,
	ErrStoreUnavailable,
}

// IsDomain reports whether err already carries one of the taxonomy errors.
func IsDomain(err error) bool {
	for _, target := range taxonomy {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
