package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Base errors for the domain taxonomy. Domain packages wrap these with
// fmt.Errorf("%w: ...") so handlers can map them with errors.Is.
var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a business-rule conflict on otherwise valid input.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient indicates lock contention or a store timeout; callers may
	// retry the whole operation since no partial writes are observable.
	ErrTransient = errors.New("transient store error")
)

// Postgres SQLSTATEs that signal retryable contention or duplicates.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateUniqueViolation      = "23505"
)

// TranslateStoreError maps low-level pgx errors onto the taxonomy.
// Non-postgres errors pass through unchanged.
func TranslateStoreError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateSerializationFailure, sqlstateDeadlockDetected:
			return errors.Join(ErrTransient, err)
		case sqlstateUniqueViolation:
			return errors.Join(ErrConflict, err)
		}
	}
	return err
}

// UserSafeMessage returns a message suitable for client responses. Wrapped
// taxonomy errors keep their text; anything else is masked.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		return err.Error()
	case errors.Is(err, ErrTransient):
		return "temporary store contention, please retry"
	default:
		return "internal error"
	}
}
