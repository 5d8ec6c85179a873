// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// # Principal Kinds

// Kind distinguishes the two authenticable populations. Each kind lives in
// its own table behind its own [Directory].
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

// Label is the capitalized kind used in client messages.
func (k Kind) Label() string {
	if k == KindAdmin {
		return "Admin"
	}
	return "User"
}

// Roles returns the roles a principal of this kind may hold.
func (k Kind) Roles() sec.RoleSet {
	if k == KindAdmin {
		return sec.AdminRoles
	}
	return sec.UserRoles
}

// KindOf maps a persisted role to its principal kind.
func KindOf(role sec.Role) (Kind, bool) {
	switch {
	case role == sec.RoleUser:
		return KindUser, true
	case role.IsAdmin():
		return KindAdmin, true
	default:
		return "", false
	}
}

// # Account Status

// Status is the lifecycle state of a principal account.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
	StatusBlocked  Status = "Blocked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending, StatusAccepted, StatusRejected, StatusBlocked:
		return true
	default:
		return false
	}
}

// # Principal

// Principal is an authenticable account, either a User or an Admin.
//
// Credential fields never leave the server: they are excluded from JSON and
// only ever hold bcrypt hashes.
type Principal struct {
	ID       string   `json:"id"`
	Code     string   `json:"code"`
	Kind     Kind     `json:"-"`
	Role     sec.Role `json:"role"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Status   Status   `json:"status"`

	PasswordHash          string     `json:"-"`
	LastPasswordHash      string     `json:"-"`
	PasswordChanged       bool       `json:"-"`
	PasswordChangedAt     *time.Time `json:"-"`
	AutoGeneratedPassword bool       `json:"-"`

	OtpHash           string     `json:"-"`
	OtpSentAt         *time.Time `json:"-"`
	FailedOtpAttempts int        `json:"-"`
	FailedOtpVerifyAt *time.Time `json:"-"`

	ResetPasswordAccess bool `json:"-"`

	IsDeleted bool       `json:"isDeleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	LastUsed  *time.Time `json:"-"`
	LastSync  *time.Time `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Version guards saves against concurrent writers.
	Version int `json:"-"`
}

// Identity projects the principal onto the request identity.
func (p *Principal) Identity() *sec.Identity {
	return &sec.Identity{
		ID:     p.ID,
		Name:   p.Name,
		Role:   p.Role,
		Status: string(p.Status),
	}
}
