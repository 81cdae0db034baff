package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres class 23 integrity-constraint codes surfaced to the services.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
// Duplicate detection relies on the datastore constraint rather than a
// check-then-insert lookup, so concurrent writers cannot race past it.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
