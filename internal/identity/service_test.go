// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, code), "want %s, got %v", code, err)
}

/*
TestService_Login_Failures covers every rejection path of the password login.
*/
func TestService_Login_Failures(t *testing.T) {
	tests := []struct {
		name     string
		seed     func(*identity.Principal)
		input    identity.LoginInput
		wantCode string
		wantMsg  string
	}{
		{"no_identifier", nil, identity.LoginInput{Password: "x"}, "INVALID_REQUEST", "Provide Username and password"},
		{"missing_password", nil, identity.LoginInput{Email: "asha@dripside.in"}, "INVALID_REQUEST", "Provide Email and password"},
		{"non_numeric_phone", nil, identity.LoginInput{Phone: "98x", Password: "x"}, "INVALID_REQUEST", "Provide Phone and password"},
		{"unknown_email", nil, identity.LoginInput{Email: "nobody@dripside.in", Password: "Secret#123"}, "INVALID_CREDENTIALS", "Invalid Email or Password"},
		{"wrong_password", nil, identity.LoginInput{Username: "asha", Password: "nope"}, "INVALID_CREDENTIALS", "Invalid Username or Password"},
		{"one_char_substituted", nil, identity.LoginInput{Username: "asha", Password: "Secret#124"}, "INVALID_CREDENTIALS", "Invalid Username or Password"},
		{"one_char_appended", nil, identity.LoginInput{Username: "asha", Password: "Secret#1234"}, "INVALID_CREDENTIALS", "Invalid Username or Password"},
		{"one_char_truncated", nil, identity.LoginInput{Username: "asha", Password: "Secret#12"}, "INVALID_CREDENTIALS", "Invalid Username or Password"},
		{"case_flipped", nil, identity.LoginInput{Username: "asha", Password: "secret#123"}, "INVALID_CREDENTIALS", "Invalid Username or Password"},
		{
			"blocked_before_password",
			func(p *identity.Principal) { p.Status = identity.StatusBlocked },
			identity.LoginInput{Username: "asha", Password: "wrong"},
			"ACCOUNT_BLOCKED", "Account blocked! Contact customer care",
		},
		{
			"soft_deleted_is_unknown",
			func(p *identity.Principal) { p.IsDeleted = true },
			identity.LoginInput{Username: "asha", Password: "Secret#123"},
			"INVALID_CREDENTIALS", "Invalid Username or Password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.seed != nil {
				f.seedUser(t, tt.seed)
			} else {
				f.seedUser(t)
			}

			_, err := f.service.Login(context.Background(), identity.KindUser, tt.input)
			assertCode(t, err, tt.wantCode)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

/*
TestService_Login_Success verifies the account mutation and the token pair.
*/
func TestService_Login_Success(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, func(p *identity.Principal) {
		p.Status = identity.StatusInactive
		p.PasswordChanged = true
	})

	session, err := f.service.Login(context.Background(), identity.KindUser, identity.LoginInput{
		Phone:    "9876543210",
		Password: "Secret#123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Login Success", session.Message)

	stored := f.users.get("user-1")
	assert.Equal(t, identity.StatusActive, stored.Status)
	assert.False(t, stored.PasswordChanged)
	require.NotNil(t, stored.LastSync)
	assert.Equal(t, *f.clock, *stored.LastSync)
	assert.Equal(t, 1, stored.Version)

	claims, err := f.tokens.Verify(session.Access.Value, sec.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.PrincipalID)
	assert.Equal(t, sec.RoleUser, claims.Role)

	assert.True(t, f.redis.Exists("auth:refresh:"+session.Refresh.ID))
}

/*
TestService_Login_AdminDirectory ensures admins authenticate against their own store.
*/
func TestService_Login_AdminDirectory(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)

	hash, err := sec.HashSecret("Admin#123")
	require.NoError(t, err)
	f.admins.put(&identity.Principal{
		ID: "admin-1", Role: sec.RoleSuperAdmin, Name: "Ravi", Username: "ravi",
		Email: "ravi@dripside.in", Status: identity.StatusActive, PasswordHash: hash,
	})

	_, err = f.service.Login(context.Background(), identity.KindAdmin, identity.LoginInput{Username: "asha", Password: "Secret#123"})
	assertCode(t, err, "INVALID_CREDENTIALS")

	session, err := f.service.Login(context.Background(), identity.KindAdmin, identity.LoginInput{Username: "ravi", Password: "Admin#123"})
	require.NoError(t, err)
	assert.Equal(t, sec.RoleSuperAdmin, session.Principal.Role)
}

/*
TestService_Refresh covers cookie presence rules and single-use rotation.
*/
func TestService_Refresh(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, identity.KindUser, identity.LoginInput{Username: "asha", Password: "Secret#123"})
	require.NoError(t, err)

	t.Run("both_absent", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, identity.RefreshInput{})
		assertCode(t, err, "UNAUTHENTICATED")
	})

	t.Run("login_then_refresh_conflicts", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, identity.RefreshInput{
			AccessToken:  session.Access.Value,
			RefreshToken: session.Refresh.Value,
		})
		assertCode(t, err, "CONFLICTING_CREDENTIALS")
	})

	t.Run("access_only", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, identity.RefreshInput{AccessToken: session.Access.Value})
		assertCode(t, err, "UNAUTHENTICATED")
	})

	t.Run("access_token_as_refresh", func(t *testing.T) {
		_, err := f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Access.Value})
		assertCode(t, err, "UNAUTHENTICATED")
	})

	t.Run("rotates_once", func(t *testing.T) {
		rotated, err := f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Refresh.Value})
		require.NoError(t, err)
		assert.Equal(t, "New Access Token Created", rotated.Message)
		assert.NotEqual(t, session.Refresh.ID, rotated.Refresh.ID)

		_, err = f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Refresh.Value})
		assertCode(t, err, "UNAUTHENTICATED")
	})
}

/*
TestService_Refresh_RechecksStatus rejects refreshes of blocked principals.
*/
func TestService_Refresh_RechecksStatus(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, identity.KindUser, identity.LoginInput{Username: "asha", Password: "Secret#123"})
	require.NoError(t, err)

	blocked := f.users.get("user-1")
	blocked.Status = identity.StatusBlocked
	f.users.put(blocked)

	_, err = f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Refresh.Value})
	assertCode(t, err, "UNAUTHENTICATED")
	assert.Equal(t, "User is Blocked", err.Error())
}

/*
TestService_Logout revokes the presented refresh token and tolerates garbage.
*/
func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, identity.KindUser, identity.LoginInput{Username: "asha", Password: "Secret#123"})
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, session.Refresh.Value))
	require.NoError(t, f.service.Logout(ctx, session.Refresh.Value))
	require.NoError(t, f.service.Logout(ctx, "not-a-token"))

	_, err = f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Refresh.Value})
	assertCode(t, err, "UNAUTHENTICATED")
}

/*
TestService_CheckStatus covers soft deletion, promotion and rejected states.
*/
func TestService_CheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		seed       func(*identity.Principal)
		role       sec.Role
		wantCode   string
		wantStatus string
	}{
		{"active", nil, sec.RoleUser, "", "Active"},
		{"inactive_promoted", func(p *identity.Principal) { p.Status = identity.StatusInactive }, sec.RoleUser, "", "Active"},
		{"soft_deleted", func(p *identity.Principal) { p.IsDeleted = true }, sec.RoleUser, "NOT_FOUND", ""},
		{"blocked", func(p *identity.Principal) { p.Status = identity.StatusBlocked }, sec.RoleUser, "UNAUTHENTICATED", ""},
		{"pending", func(p *identity.Principal) { p.Status = identity.StatusPending }, sec.RoleUser, "UNAUTHENTICATED", ""},
		{"role_from_other_kind", nil, sec.RoleAdmin, "NOT_FOUND", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.seed != nil {
				f.seedUser(t, tt.seed)
			} else {
				f.seedUser(t)
			}

			caller, err := f.service.CheckStatus(context.Background(), "user-1", tt.role)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, caller.Status)

			stored := f.users.get("user-1")
			assert.Equal(t, identity.Status(tt.wantStatus), stored.Status)
			require.NotNil(t, stored.LastUsed)
			assert.Equal(t, 0, stored.Version, "touch must not bump the version")
		})
	}
}

/*
TestService_ForgotPassword checks that responses are identical for known and
unknown emails and that only a match opens the grant.
*/
func TestService_ForgotPassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	ctx := context.Background()

	unknown, err := f.service.ForgotPassword(ctx, identity.KindUser, "ghost@dripside.in")
	require.NoError(t, err)
	assert.Equal(t, 0, f.notifier.count())

	known, err := f.service.ForgotPassword(ctx, identity.KindUser, "ASHA@dripside.in")
	require.NoError(t, err)

	assert.Equal(t, unknown, known)
	assert.True(t, f.users.get("user-1").ResetPasswordAccess)

	mail := f.notifier.last()
	assert.Equal(t, notify.TemplateResetPassword, mail.Template)
	_, err = f.tokens.Verify(mail.Data["token"], sec.ResetToken)
	assert.NoError(t, err)

	_, err = f.service.ForgotPassword(ctx, identity.KindUser, "")
	assertCode(t, err, "INVALID_REQUEST")
}

/*
TestService_ForgotPassword_Blocked keeps the generic answer but opens no grant.
*/
func TestService_ForgotPassword_Blocked(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, func(p *identity.Principal) { p.Status = identity.StatusBlocked })

	message, err := f.service.ForgotPassword(context.Background(), identity.KindUser, "asha@dripside.in")
	require.NoError(t, err)

	assert.Equal(t, identity.ForgotPasswordMessage, message)
	assert.False(t, f.users.get("user-1").ResetPasswordAccess)
	assert.Equal(t, 0, f.notifier.count())
}

/*
TestService_ResetPassword walks the grant from forgot-password to completion.
*/
func TestService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	original := f.seedUser(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, identity.KindUser, identity.LoginInput{Username: "asha", Password: "Secret#123"})
	require.NoError(t, err)

	reset, err := f.tokens.Issue("user-1", "Asha", sec.RoleUser, sec.ResetToken)
	require.NoError(t, err)

	t.Run("no_grant", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindUser, reset.Value, "Fresh#456")
		assertCode(t, err, "PERMISSION_DENIED")
	})

	_, err = f.service.ForgotPassword(ctx, identity.KindUser, "asha@dripside.in")
	require.NoError(t, err)
	token := f.notifier.last().Data["token"]

	t.Run("wrong_token_kind", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindUser, session.Access.Value, "Fresh#456")
		assertCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("wrong_directory", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindAdmin, token, "Fresh#456")
		assertCode(t, err, "PERMISSION_DENIED")
	})

	t.Run("over_long_password", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindUser, token, strings.Repeat("a", 80))
		assertCode(t, err, "INVALID_REQUEST")
		assert.True(t, f.users.get("user-1").ResetPasswordAccess)
		assert.Equal(t, original.PasswordHash, f.users.get("user-1").PasswordHash)
	})

	t.Run("same_password_keeps_grant", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindUser, token, "Secret#123")
		assertCode(t, err, "SAME_PASSWORD")
		assert.True(t, f.users.get("user-1").ResetPasswordAccess)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, f.service.ResetPassword(ctx, identity.KindUser, token, "Fresh#456"))

		stored := f.users.get("user-1")
		assert.False(t, stored.ResetPasswordAccess)
		assert.True(t, stored.PasswordChanged)
		assert.Equal(t, original.PasswordHash, stored.LastPasswordHash)
		assert.True(t, sec.VerifySecret("Fresh#456", stored.PasswordHash))

		_, err := f.service.Refresh(ctx, identity.RefreshInput{RefreshToken: session.Refresh.Value})
		assertCode(t, err, "UNAUTHENTICATED")
	})

	t.Run("grant_is_single_use", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, identity.KindUser, token, "Other#789")
		assertCode(t, err, "PERMISSION_DENIED")
	})
}

/*
TestService_UpdatePassword covers the authenticated change-password policy.
*/
func TestService_UpdatePassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	ctx := context.Background()

	assertCode(t, f.service.UpdatePassword(ctx, identity.KindUser, "user-1", "", "x"), "INVALID_REQUEST")
	assertCode(t, f.service.UpdatePassword(ctx, identity.KindUser, "user-1", "wrong", "Fresh#456"), "INVALID_CREDENTIALS")
	assertCode(t, f.service.UpdatePassword(ctx, identity.KindUser, "user-1", "Secret#123", "Secret#123"), "SAME_PASSWORD")
	assertCode(t, f.service.UpdatePassword(ctx, identity.KindUser, "user-1", "Secret#123", strings.Repeat("a", 80)), "INVALID_REQUEST")
	assert.True(t, sec.VerifySecret("Secret#123", f.users.get("user-1").PasswordHash))

	require.NoError(t, f.service.UpdatePassword(ctx, identity.KindUser, "user-1", "Secret#123", "Fresh#456"))
	assert.True(t, sec.VerifySecret("Fresh#456", f.users.get("user-1").PasswordHash))
}
