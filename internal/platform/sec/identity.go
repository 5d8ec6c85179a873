// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package sec

import "github.com/dripside-in/dripside-backend/pkg/uuid"

// Identity is the normalized caller attached to a request once it passes an
// authorization gate.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Status string `json:"status"`
}

// IsGuest reports whether the identity was synthesized for an anonymous caller.
func (i *Identity) IsGuest() bool {
	return i != nil && i.Role == RoleGuest
}

// NewGuest returns a transient guest identity with a fresh id.
func NewGuest() *Identity {
	return &Identity{
		ID:     uuid.New(),
		Name:   "Guest",
		Role:   RoleGuest,
		Status: "Active",
	}
}
