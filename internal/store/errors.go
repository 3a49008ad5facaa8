package store

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors shared by all repositories.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique column (user email,
	// department name) already holds the value being inserted.
	ErrDuplicate = errors.New("duplicate value")

	// ErrInUse is returned when a delete is blocked by a referencing
	// record, e.g. a department with complaints routed to it.
	ErrInUse = errors.New("record in use")

	// ErrInvalidValue is returned when a write fails a database enum
	// constraint, e.g. an unsupported complaint status.
	ErrInvalidValue = errors.New("invalid value")
)

// Postgres error codes the repositories translate to sentinels. The
// meaning of a foreign key violation depends on the statement: on insert
// the referenced row is missing, on delete a referencing row exists, so
// call sites map it themselves.
const (
	pgUniqueViolation     = pq.ErrorCode("23505")
	pgForeignKeyViolation = pq.ErrorCode("23503")
	pgCheckViolation      = pq.ErrorCode("23514")
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
