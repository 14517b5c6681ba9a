package errors

// Postgres error classification

import (
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTooLong       = "22001"
	pgInvalidText         = "22P02"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgReadOnlyTx          = "25006"
	pgCannotConnectNow    = "57P03"
)

// PgError returns the *pgconn.PgError behind err, if there is one
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error with the given SQLSTATE
func IsSQLState(err error, state string) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == state
}

// IsDuplicateKey reports a unique violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgUniqueViolation) }

// IsCheckViolation reports a check constraint violation
func IsCheckViolation(err error) bool { return IsSQLState(err, pgCheckViolation) }

// DBErrorCode classifies a Postgres error, ok is false for non-pg errors
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := PgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgUniqueViolation, pgSerialization, pgDeadlock:
		return ErrorCodeConflict, true
	case pgForeignKeyViolation, pgStringTooLong, pgInvalidText:
		return ErrorCodeInvalidArgument, true
	case pgNotNullViolation, pgCheckViolation:
		return ErrorCodeValidation, true
	case pgReadOnlyTx, pgCannotConnectNow:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code, nil stays nil
// Constraint violations carry a field error derived from the column or constraint name
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		return Wrap(err, ErrorCodeDB, msg)
	}
	e := &Error{code: code, msg: msg, orig: err}
	if code == ErrorCodeValidation {
		if f := fieldFromPg(err); f != "" {
			e.fields = []FieldError{{Field: f, Message: "violates constraint"}}
		}
	}
	return e
}

// fieldFromPg prefers the column name, then the middle token of "<table>_<field>_<kind>"
func fieldFromPg(err error) string {
	pgErr, ok := PgError(err)
	if !ok {
		return ""
	}
	if c := strings.TrimSpace(pgErr.ColumnName); c != "" {
		return c
	}
	name := strings.TrimSpace(pgErr.ConstraintName)
	if t := strings.TrimSpace(pgErr.TableName); t != "" {
		name = strings.TrimPrefix(name, t+"_")
	}
	if i := strings.LastIndex(name, "_"); i > 0 {
		name = name[:i]
	}
	return name
}
