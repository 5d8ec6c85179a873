// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package identity implements the credential and session lifecycle shared by
users and admins.

It covers password hashing and rotation, one-time codes with lockout, the
four token kinds, login, refresh, logout, the forgot/reset password flow, and
the live status check behind every authorization gate.

Architecture:

  - Service: Orchestrates the flows. It never touches SQL or Redis directly.
  - Directory: One persistence binding per principal [Kind] (see [Registry]).
  - SessionStore: Redis allowlist of refresh token ids.
  - Handler: Cookie delivery and the public auth routes.
*/
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/config"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// ForgotPasswordMessage is returned whether or not the email matched.
const ForgotPasswordMessage = "If your email exist,then the Password reset link will be sent to your email"

// # Service

// Service implements the credential and session use cases.
type Service struct {
	registry *Registry
	tokens   Tokens
	sessions SessionStore
	notifier notify.Notifier
	otp      config.OTP
	now      func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(registry *Registry, tokens Tokens, sessions SessionStore, notifier notify.Notifier, otp config.OTP) *Service {
	return &Service{
		registry: registry,
		tokens:   tokens,
		sessions: sessions,
		notifier: notifier,
		otp:      otp,
		now:      time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (service *Service) WithClock(now func() time.Time) *Service {
	clone := *service
	clone.now = now
	return &clone
}

// Session is a freshly issued token pair.
type Session struct {
	Access    *sec.IssuedToken
	Refresh   *sec.IssuedToken
	Principal *Principal
	Message   string
}

/*
IssueSession signs an access and refresh token for the principal and puts the
refresh token id on the allowlist.

Parameters:
  - context: context.Context
  - principal: *Principal

Returns:
  - *Session: Token pair ready for delivery
  - error: Signing or storage failures
*/
func (service *Service) IssueSession(context context.Context, principal *Principal) (*Session, error) {
	access, err := service.tokens.Issue(principal.ID, principal.Name, principal.Role, sec.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("identity_issue_access_failed: %w", err)
	}

	refresh, err := service.tokens.Issue(principal.ID, principal.Name, principal.Role, sec.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("identity_issue_refresh_failed: %w", err)
	}

	if err := service.sessions.Store(context, refresh.ID, principal.ID, service.tokens.TTL(sec.RefreshToken)); err != nil {
		return nil, fmt.Errorf("identity_store_session_failed: %w", err)
	}

	return &Session{Access: access, Refresh: refresh, Principal: principal}, nil
}

// # Login

// LoginInput holds the identifiers and password of a login attempt.
type LoginInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// identifierLabel names the identifier the caller most likely used.
func (input LoginInput) identifierLabel() string {
	switch {
	case input.Email != "":
		return "Email"
	case input.Phone != "":
		return "Phone"
	default:
		return "Username"
	}
}

/*
Login authenticates a principal by username, email or phone plus password.

Description: Blocked accounts are rejected before the password is checked.
A successful login promotes Inactive to Active, clears the password-changed
flag and stamps lastSync/lastUsed.

Parameters:
  - context: context.Context
  - kind: Kind
  - input: LoginInput

Returns:
  - *Session: Access and refresh tokens
  - error: InvalidRequest, InvalidCredentials, AccountBlocked or storage failures
*/
func (service *Service) Login(context context.Context, kind Kind, input LoginInput) (*Session, error) {
	directory, err := service.registry.Directory(kind)
	if err != nil {
		return nil, err
	}

	lookup := LoginLookup{
		Username: strings.ToLower(strings.TrimSpace(input.Username)),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:    strings.TrimSpace(input.Phone),
	}
	label := input.identifierLabel()

	// 1. Shape of the request
	if lookup.Empty() || (lookup.Phone != "" && !isNumeric(lookup.Phone)) || input.Password == "" {
		return nil, apperr.InvalidRequest(fmt.Sprintf("Provide %s and password", label))
	}

	// 2. Lookup over any identifier
	principal, err := directory.FindByLogin(context, lookup)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.InvalidCredentials(fmt.Sprintf("Invalid %s or Password", label))
		}
		return nil, fmt.Errorf("identity_login_lookup_failed: %w", err)
	}

	// 3. Blocked short-circuits before the password check
	if principal.Status == StatusBlocked {
		return nil, apperr.AccountBlocked("Account blocked! Contact customer care")
	}

	// 4. Password
	if !sec.VerifySecret(input.Password, principal.PasswordHash) {
		ctxutil.GetLogger(context).WarnContext(context, "login_failed",
			slog.String("kind", string(kind)),
			slog.String("principal_id", principal.ID),
		)
		return nil, apperr.InvalidCredentials(fmt.Sprintf("Invalid %s or Password", label))
	}

	// 5. Touch the account
	now := service.now()
	if principal.Status == StatusInactive {
		principal.Status = StatusActive
	}
	principal.PasswordChanged = false
	principal.LastSync = &now
	principal.LastUsed = &now

	if err := directory.Save(context, principal); err != nil {
		return nil, fmt.Errorf("identity_login_save_failed: %w", err)
	}

	// 6. Tokens
	session, err := service.IssueSession(context, principal)
	if err != nil {
		return nil, err
	}
	session.Message = "Login Success"

	ctxutil.GetLogger(context).InfoContext(context, "login_succeeded",
		slog.String("kind", string(kind)),
		slog.String("principal_id", principal.ID),
	)

	return session, nil
}

// # Refresh & Logout

// RefreshInput carries the cookies presented to the refresh endpoint.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

/*
Refresh exchanges a refresh token for a new token pair.

Description: Exactly one of the access and refresh cookies must be present.
The refresh token id is consumed from the allowlist so every refresh token
works once; the principal's live status is re-checked before issuing.

Parameters:
  - context: context.Context
  - input: RefreshInput

Returns:
  - *Session: Rotated token pair
  - error: Unauthorized or ConflictingCredentials
*/
func (service *Service) Refresh(context context.Context, input RefreshInput) (*Session, error) {
	switch {
	case input.AccessToken == "" && input.RefreshToken == "":
		return nil, apperr.Unauthorized("Unauthenticated request")
	case input.AccessToken != "" && input.RefreshToken != "":
		return nil, apperr.ConflictingCredentials("AccessToken and RefreshToken already exist")
	case input.RefreshToken == "":
		return nil, apperr.Unauthorized("Refresh token required")
	}

	claims, err := service.tokens.Verify(input.RefreshToken, sec.RefreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	owner, err := service.sessions.Consume(context, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			ctxutil.GetLogger(context).WarnContext(context, "refresh_token_reused",
				slog.String("principal_id", claims.PrincipalID),
			)
			return nil, apperr.Unauthorized("Refresh token has been revoked")
		}
		return nil, fmt.Errorf("identity_refresh_consume_failed: %w", err)
	}
	if owner != claims.PrincipalID {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	principal, err := service.checkStatus(context, claims.PrincipalID, claims.Role)
	if err != nil {
		return nil, err
	}

	session, err := service.IssueSession(context, principal)
	if err != nil {
		return nil, err
	}
	session.Message = "New Access Token Created"

	return session, nil
}

/*
Logout removes the presented refresh token from the allowlist.

Description: Idempotent. Invalid or already revoked tokens are not an error.
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	claims, err := service.tokens.Verify(refreshToken, sec.RefreshToken)
	if err != nil {
		return nil
	}

	if err := service.sessions.Revoke(context, claims.ID); err != nil {
		return fmt.Errorf("identity_logout_failed: %w", err)
	}
	return nil
}

// RevokeSessions signs the principal out everywhere.
func (service *Service) RevokeSessions(context context.Context, principalID string) error {
	if err := service.sessions.RevokeAll(context, principalID); err != nil {
		return fmt.Errorf("identity_revoke_sessions_failed: %w", err)
	}
	return nil
}

// # Status Check

/*
CheckStatus re-fetches a principal for the authorization gate.

Description: Soft-deleted principals are reported as not found. Inactive
principals are promoted to Active and lastUsed is stamped; anything other
than Active afterwards is rejected.

Parameters:
  - context: context.Context
  - principalID: string
  - role: sec.Role (from the verified token)

Returns:
  - *sec.Identity: Normalized caller
  - error: NotFound, Unauthorized or storage failures
*/
func (service *Service) CheckStatus(context context.Context, principalID string, role sec.Role) (*sec.Identity, error) {
	principal, err := service.checkStatus(context, principalID, role)
	if err != nil {
		return nil, err
	}
	return principal.Identity(), nil
}

func (service *Service) checkStatus(context context.Context, principalID string, role sec.Role) (*Principal, error) {
	directory, kind, err := service.registry.ForRole(role)
	if err != nil {
		return nil, apperr.Forbidden("Forbidden")
	}

	principal, err := directory.FindByID(context, principalID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound(kind.Label())
		}
		return nil, fmt.Errorf("identity_status_lookup_failed: %w", err)
	}

	if principal.IsDeleted {
		return nil, apperr.NotFound(kind.Label())
	}

	if principal.Role != role {
		return nil, apperr.Unauthorized("Role has changed, sign in again")
	}

	now := service.now()
	status, err := directory.Touch(context, principal.ID, now)
	if err != nil {
		return nil, fmt.Errorf("identity_status_touch_failed: %w", err)
	}
	principal.Status = status
	principal.LastUsed = &now

	if principal.Status != StatusActive {
		return nil, apperr.Unauthorized(fmt.Sprintf("%s is %s", kind.Label(), principal.Status))
	}

	return principal, nil
}

// # Password Recovery

/*
ForgotPassword opens a password reset grant for the account with email.

Description: The response never reveals whether the email matched. On a
match on a live, unblocked account the grant flag is set and a reset token
is mailed.

Returns:
  - string: [ForgotPasswordMessage]
  - error: InvalidRequest or storage failures
*/
func (service *Service) ForgotPassword(context context.Context, kind Kind, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.InvalidRequest("Please provide email")
	}

	directory, err := service.registry.Directory(kind)
	if err != nil {
		return "", err
	}

	principal, err := directory.FindByEmail(context, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return ForgotPasswordMessage, nil
		}
		return "", fmt.Errorf("identity_forgot_lookup_failed: %w", err)
	}

	// Blocked and deleted accounts get the same answer but no grant.
	if principal.Status == StatusBlocked || principal.IsDeleted {
		ctxutil.GetLogger(context).WarnContext(context, "password_reset_refused",
			slog.String("principal_id", principal.ID),
		)
		return ForgotPasswordMessage, nil
	}

	principal.ResetPasswordAccess = true
	if err := directory.Save(context, principal); err != nil {
		return "", fmt.Errorf("identity_forgot_save_failed: %w", err)
	}

	token, err := service.tokens.Issue(principal.ID, principal.Name, principal.Role, sec.ResetToken)
	if err != nil {
		return "", fmt.Errorf("identity_forgot_token_failed: %w", err)
	}

	service.notifier.Send(context, notify.Message{
		Recipient: principal.Email,
		Template:  notify.TemplateResetPassword,
		Data: map[string]string{
			"name":  principal.Name,
			"token": token.Value,
		},
	})

	return ForgotPasswordMessage, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: The token must be a valid reset token and the grant must still
be open. A password equal to the current one is rejected and leaves the
grant in place. On success the grant closes, history is recorded and every
refresh session is revoked.

Returns:
  - error: InvalidRequest, InvalidCredentials, PermissionDenied, SamePassword
*/
func (service *Service) ResetPassword(context context.Context, kind Kind, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperr.InvalidRequest("Please provide token and password")
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	claims, err := service.tokens.Verify(token, sec.ResetToken)
	if err != nil {
		return apperr.InvalidCredentials("Incorrect credentials")
	}

	if claimKind, ok := KindOf(claims.Role); !ok || claimKind != kind {
		return apperr.PermissionDenied("Reset password permission denied")
	}

	directory, err := service.registry.Directory(kind)
	if err != nil {
		return err
	}

	principal, err := directory.FindResettable(context, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return apperr.PermissionDenied("Reset password permission denied")
		}
		return fmt.Errorf("identity_reset_lookup_failed: %w", err)
	}

	if sec.VerifySecret(newPassword, principal.PasswordHash) {
		return apperr.SamePassword("New password and old password are the same")
	}

	principal.ResetPasswordAccess = false
	if err := service.ChangePassword(context, principal, newPassword); err != nil {
		return err
	}

	return service.RevokeSessions(context, principal.ID)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
