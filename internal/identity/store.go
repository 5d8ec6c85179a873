// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// # Principal Data Access

// LoginLookup holds the identifiers a login may present. Empty fields are
// ignored; the rest are OR-ed.
type LoginLookup struct {
	Username string
	Email    string
	Phone    string
}

// Empty reports whether no identifier was supplied.
func (l LoginLookup) Empty() bool {
	return l.Username == "" && l.Email == "" && l.Phone == ""
}

// Directory is the persistence binding of one principal kind.
//
// Lookups return an error satisfying errors.Is(err, dberr.ErrNotFound) when
// nothing matches.
type Directory interface {

	/*
		FindByID returns the principal with the given id, soft-deleted or not.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Principal: Hydrated entity
		  - error: dberr.ErrNotFound or database errors
	*/
	FindByID(context context.Context, id string) (*Principal, error)

	// FindByLogin matches any supplied identifier among live principals.
	FindByLogin(context context.Context, lookup LoginLookup) (*Principal, error)

	// FindByEmail matches a live principal by email.
	FindByEmail(context context.Context, email string) (*Principal, error)

	// FindByPhone matches a live principal by phone.
	FindByPhone(context context.Context, phone string) (*Principal, error)

	// FindResettable returns the live principal only while a forgot-password
	// grant is pending.
	FindResettable(context context.Context, id string) (*Principal, error)

	/*
		Save writes every mutable field of the principal.

		Description: The write only applies when the stored version equals
		principal.Version; on success principal.Version is incremented.

		Returns:
		  - error: apperr.Conflict on a stale version, or database errors
	*/
	Save(context context.Context, principal *Principal) error

	/*
		Touch stamps lastUsed and promotes Inactive to Active in one statement.

		Description: Runs on every authorized request, so it does not take part
		in the version check.

		Returns:
		  - Status: The status after promotion
		  - error: dberr.ErrNotFound or database errors
	*/
	Touch(context context.Context, id string, at time.Time) (Status, error)
}

// Registry resolves the directory for a principal kind.
type Registry struct {
	directories map[Kind]Directory
}

// NewRegistry binds the user and admin directories.
func NewRegistry(users, admins Directory) *Registry {
	return &Registry{directories: map[Kind]Directory{
		KindUser:  users,
		KindAdmin: admins,
	}}
}

// Directory returns the binding for kind.
func (r *Registry) Directory(kind Kind) (Directory, error) {
	directory, ok := r.directories[kind]
	if !ok || directory == nil {
		return nil, fmt.Errorf("identity: no directory for kind %q", kind)
	}
	return directory, nil
}

// ForRole returns the binding and kind that store principals holding role.
func (r *Registry) ForRole(role sec.Role) (Directory, Kind, error) {
	kind, ok := KindOf(role)
	if !ok {
		return nil, "", fmt.Errorf("identity: role %q is not persisted", role)
	}
	directory, err := r.Directory(kind)
	return directory, kind, err
}

// # Refresh Sessions

// ErrSessionNotFound is returned when a refresh token id is not on the
// allowlist because it was used, revoked, or has expired.
var ErrSessionNotFound = errors.New("identity: refresh session not found")

// SessionStore is the server-side allowlist of refresh token ids.
type SessionStore interface {

	// Store allows jti for principalID until ttl elapses.
	Store(context context.Context, jti, principalID string, ttl time.Duration) error

	// Consume atomically removes jti and returns its principal.
	Consume(context context.Context, jti string) (string, error)

	// Revoke removes a single jti. Unknown ids are ignored.
	Revoke(context context.Context, jti string) error

	// RevokeAll removes every jti of principalID.
	RevokeAll(context context.Context, principalID string) error
}

// # Tokens

// Tokens issues and verifies the four token kinds.
type Tokens interface {
	Issue(principalID, displayName string, role sec.Role, kind sec.TokenKind) (*sec.IssuedToken, error)
	Verify(token string, kind sec.TokenKind) (*sec.Claims, error)
	TTL(kind sec.TokenKind) time.Duration
}
