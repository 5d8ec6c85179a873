// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// # Credential Store

/*
ChangePassword rotates the principal's password hash.

Description: The previous hash moves to LastPasswordHash and the principal is
flagged as changed. Policy checks (current password, same password) are the
caller's job.

Parameters:
  - context: context.Context
  - principal: *Principal (mutated and saved)
  - newPassword: string (plaintext)

Returns:
  - error: InvalidRequest for an over-long password, hashing or storage failures
*/
func (service *Service) ChangePassword(context context.Context, principal *Principal, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	directory, err := service.registry.Directory(principal.Kind)
	if err != nil {
		return err
	}

	hash, err := sec.HashSecret(newPassword)
	if err != nil {
		return fmt.Errorf("identity_hash_password_failed: %w", err)
	}

	now := service.now()
	principal.LastPasswordHash = principal.PasswordHash
	principal.PasswordHash = hash
	principal.PasswordChanged = true
	principal.PasswordChangedAt = &now

	if err := directory.Save(context, principal); err != nil {
		return fmt.Errorf("identity_change_password_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword is the authenticated change-password flow.

Description: The current password must verify and the new one must differ
from it. Every refresh session of the principal is revoked on success.

Returns:
  - error: InvalidRequest, InvalidCredentials, SamePassword or storage failures
*/
func (service *Service) UpdatePassword(context context.Context, kind Kind, principalID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.InvalidRequest("Provide current password and new password")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	directory, err := service.registry.Directory(kind)
	if err != nil {
		return err
	}

	principal, err := directory.FindByID(context, principalID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return apperr.NotFound(kind.Label())
		}
		return fmt.Errorf("identity_update_password_lookup_failed: %w", err)
	}
	if principal.IsDeleted {
		return apperr.NotFound(kind.Label())
	}

	if !sec.VerifySecret(currentPassword, principal.PasswordHash) {
		return apperr.InvalidCredentials("Incorrect current password")
	}

	if sec.VerifySecret(newPassword, principal.PasswordHash) {
		return apperr.SamePassword("New password and old password are the same")
	}

	principal.AutoGeneratedPassword = false
	if err := service.ChangePassword(context, principal, newPassword); err != nil {
		return err
	}

	return service.RevokeSessions(context, principal.ID)
}

// checkPasswordLength rejects passwords bcrypt cannot hash.
func checkPasswordLength(password string) error {
	if len(password) > sec.MaxSecretBytes {
		return apperr.InvalidRequest(fmt.Sprintf("Password must be at most %d bytes", sec.MaxSecretBytes))
	}
	return nil
}
