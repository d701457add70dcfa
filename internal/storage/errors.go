// ABOUTME: Storage error taxonomy and SQLite error classification.
// ABOUTME: Constraint failures from the engine are surfaced as ErrConstraintViolation.
package storage

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotInitialized is returned by every operation before EnsureSchema succeeds.
	ErrNotInitialized = errors.New("storage not initialized")
	// ErrNotFound is returned when a referenced row or parent doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation wraps foreign key and uniqueness failures.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrMigrationFailure is fatal to startup.
	ErrMigrationFailure = errors.New("migration failure")
	// ErrInvalidInput is returned for arguments rejected before reaching the engine.
	ErrInvalidInput = errors.New("invalid input")
)

// isConstraintErr reports whether err is a SQLite constraint failure.
func isConstraintErr(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// wrapErr adds operation context and tags engine constraint failures.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isConstraintErr(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrConstraintViolation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
