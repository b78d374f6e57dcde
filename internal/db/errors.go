package db

import (
	"fmt"

	"coachslot/internal/apperr"
)

// Translate maps an error returned from a store call onto the apperr
// taxonomy. Errors already in the taxonomy pass through, transaction
// conflicts become onConflict and anything else is a store failure.
func Translate(op string, err error, onConflict error) error {
	if err == nil {
		return nil
	}
	if apperr.IsDomain(err) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%s: %w", op, onConflict)
	}
	return apperr.Store(op, err)
}
