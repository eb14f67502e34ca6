package yamdb

import (
	stderrors "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a uniqueness constraint failure
// raised by the store. sqlite reports it in the message, postgres through
// SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// translateStoreError maps a store error into the core taxonomy. Unique
// violations become conflicts on field, missing rows become not found and
// anything else is wrapped as an internal failure.
func translateStoreError(err error, field, resource, identifier string) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return ConflictError(field, "already exists")
	case isRecordNotFound(err):
		return NotFoundError(resource, identifier)
	default:
		return internalError(err, "store operation failed")
	}
}
