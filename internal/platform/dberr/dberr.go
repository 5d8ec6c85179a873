// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// Unique-constraint violations are surfaced as a typed [*DuplicateKeyError]
// by the persistence bindings, so callers never sniff driver codes.
package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// DuplicateKeyError reports that a write collided with a unique index.
type DuplicateKeyError struct {
	// Constraint is the name of the violated index (e.g. "users_username_key").
	Constraint string
	// Field is the column the constraint guards, best effort.
	Field string
	cause error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate value for %s", e.Field)
	}
	return "duplicate key"
}

func (e *DuplicateKeyError) Unwrap() error { return e.cause }

// IsDuplicateKey reports whether err carries a [*DuplicateKeyError].
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

// AsDuplicateKey extracts the [*DuplicateKeyError] from err's chain.
func AsDuplicateKey(err error) (*DuplicateKeyError, bool) {
	var dup *DuplicateKeyError
	ok := errors.As(err, &dup)
	return dup, ok
}

// Wrap inspects a database error and wraps it into a meaningful error.
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unique violations become a typed error the caller can map to 409
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return &DuplicateKeyError{
			Constraint: pgErr.ConstraintName,
			Field:      fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName),
			cause:      err,
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// ToAppError maps a persistence error to the API error taxonomy.
// Duplicate keys become 409 Conflict naming the offending field.
func ToAppError(err error) error {
	if dup, ok := AsDuplicateKey(err); ok {
		name := dup.Field
		if name == "" {
			name = "Value"
		}
		return apperr.Conflict(upperFirst(name) + " already exists").WithCause(err)
	}
	return err
}

// fieldFromConstraint derives the column from Postgres' default index naming
// "<table>_<column>_key".
func fieldFromConstraint(table, constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	name = strings.TrimSuffix(name, "_idx")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	return name
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
