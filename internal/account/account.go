// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package account manages the User and Admin resources.

One [Service] and one [PostgresStore] are instantiated per principal kind.
Credential flows (login, OTP, password reset) belong to the identity package;
this package owns profile data, status changes and soft deletion.

# Architecture

  - Entities: identity.Principal, shared with the identity package.
  - Repository: identity.Directory plus list and maintenance queries.
  - Handler: The /api/v1/user and /api/v1/admin route tables.
*/
package account

import (
	"context"
	"time"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// # Field Names

const (
	FieldName     = "name"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldStatus   = "status"
)

// generatedPasswordLength is the length of passwords created for callers
// that did not supply one.
const generatedPasswordLength = 10

// # Filters

// Filter holds the list criteria of a principal listing.
type Filter struct {
	// Timestamp is the list cursor. Rows created after it are only counted.
	Timestamp *time.Time
	Page      pagination.Params

	Role     sec.Role
	Name     string
	Username string
	Email    string
	Phone    string
	Statuses []identity.Status
	Deleted  query.Deleted
}

// Counts are the totals returned alongside a listing.
type Counts struct {
	Total  int
	Latest int
}

// # Inputs

// AddInput creates a principal. An empty password is generated.
type AddInput struct {
	Name     string
	Username string
	Email    string
	Phone    string
	Password string
	Role     sec.Role
}

// EditInput is a partial update applied by an administrator.
type EditInput struct {
	Name     *string
	Username *string
	Email    *string
	Phone    *string
	Role     *sec.Role
	Password *string
}

// # Repository Contracts

// Repository is the persistence contract of one principal kind.
type Repository interface {
	identity.Directory

	/*
		Create inserts a new principal.

		Description: The code and timestamps are assigned by the database and
		written back to principal.

		Returns:
		  - error: *dberr.DuplicateKeyError on a taken username, email or phone
	*/
	Create(context context.Context, principal *identity.Principal) error

	// List returns one page of principals plus the counters of the envelope.
	List(context context.Context, filter Filter) ([]*identity.Principal, Counts, error)

	// UsernameExists reports whether any principal, deleted or not, holds username.
	UsernameExists(context context.Context, username string) (bool, error)

	// Delete physically removes a principal.
	Delete(context context.Context, id string) error

	// DeleteAll physically removes every principal and returns the count.
	DeleteAll(context context.Context) (int64, error)
}
