package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeCheckViolation      = "23514"
	pgCodeLockNotAvailable    = "55P03"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code := pgErrorCode(err); code == pgCodeUniqueViolation {
		if constraintName == "" {
			return true
		}
		return strings.Contains(err.Error(), constraintName)
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether the error is a referential-integrity
// failure, e.g. deleting a product that settled transactions still reference.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code := pgErrorCode(err); code == pgCodeForeignKeyViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether the error is a CHECK constraint failure,
// e.g. a stock decrement that would drive stok below zero.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if code := pgErrorCode(err); code == pgCodeCheckViolation {
		return true
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// IsLockTimeout reports whether the error is a row-lock wait timeout.
func IsLockTimeout(err error) bool {
	if err == nil {
		return false
	}
	if code := pgErrorCode(err); code == pgCodeLockNotAvailable {
		return true
	}
	return strings.Contains(err.Error(), "lock timeout")
}

func pgErrorCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
