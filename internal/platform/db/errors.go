package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wardroster/wardroster/internal/platform/apperr"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// MapError classifies a storage error. resource names the row being read or
// written and ends up in the not-found details. Errors that are already
// classified pass through unchanged.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource, "")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation:
			e := apperr.Conflict(resource+" already exists", "")
			e.Err = err
			return e
		case CodeForeignKeyViolation:
			e := apperr.NotFound(resource, "")
			e.Details["constraint"] = pgErr.ConstraintName
			e.Err = err
			return e
		case CodeCheckViolation:
			e := apperr.Invalid(resource + " violates " + pgErr.ConstraintName)
			e.Err = err
			return e
		}
	}
	return apperr.Unavailable(err)
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation
}
