// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/constants"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/respond"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// TokenVerifier verifies signed tokens of a given kind.
//
// Declared here so the gate does not depend on the token service
// implementation and tests can inject fakes.
type TokenVerifier interface {
	Verify(token string, kind sec.TokenKind) (*sec.Claims, error)
}

// StatusChecker re-fetches a principal's live status.
//
// Implementations promote Inactive principals to Active, stamp lastUsed and
// reject soft-deleted or blocked principals.
type StatusChecker interface {
	CheckStatus(ctx context.Context, principalID string, role sec.Role) (*sec.Identity, error)
}

// Authorizer builds the role gates mounted in front of protected routes.
type Authorizer struct {
	verifier     TokenVerifier
	checker      StatusChecker
	accessCookie string
}

// NewAuthorizer creates an Authorizer. accessCookie names the cookie that
// must carry a byte-identical copy of the bearer token.
func NewAuthorizer(verifier TokenVerifier, checker StatusChecker, accessCookie string) *Authorizer {
	return &Authorizer{verifier: verifier, checker: checker, accessCookie: accessCookie}
}

// SuperAdminOnly admits SuperAdmin and DeveloperAdmin.
func (a *Authorizer) SuperAdminOnly(next http.Handler) http.Handler {
	return a.gate(sec.SuperAdminRoles, false, next)
}

// AdminOrAbove admits every admin role.
func (a *Authorizer) AdminOrAbove(next http.Handler) http.Handler {
	return a.gate(sec.AdminRoles, false, next)
}

// UserOnly admits end users.
func (a *Authorizer) UserOnly(next http.Handler) http.Handler {
	return a.gate(sec.UserRoles, false, next)
}

// AnyAuthenticated admits every persisted principal.
func (a *Authorizer) AnyAuthenticated(next http.Handler) http.Handler {
	return a.gate(sec.AuthenticatedRoles, false, next)
}

// GuestOrAuthenticated behaves like [Authorizer.AnyAuthenticated] when an
// Authorization header is present and attaches a transient guest otherwise.
func (a *Authorizer) GuestOrAuthenticated(next http.Handler) http.Handler {
	return a.gate(sec.AuthenticatedRoles, true, next)
}

/*
gate runs the shared authorization algorithm.

Every failure before the status check answers 403 with the same message so
callers cannot tell which step rejected them. Status-check failures keep the
underlying status code but still hide the reason.
*/
func (a *Authorizer) gate(allowed sec.RoleSet, allowGuest bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		header := request.Header.Get(constants.HeaderAuthorization)

		// ── 1. Header ─────────────────────────────────────────────────────
		if header == "" {
			if allowGuest {
				guest := sec.NewGuest()
				noteIdentity(ctx, guest.ID, string(guest.Role))
				next.ServeHTTP(writer, request.WithContext(ctxutil.WithIdentity(ctx, guest)))
				return
			}
			forbid(writer, request)
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
			forbid(writer, request)
			return
		}

		// ── 2. Cookie binding ─────────────────────────────────────────────
		cookie, err := request.Cookie(a.accessCookie)
		if err != nil || cookie.Value != token {
			forbid(writer, request)
			return
		}

		// ── 3. Signature and expiry ───────────────────────────────────────
		claims, err := a.verifier.Verify(token, sec.AccessToken)
		if err != nil {
			forbid(writer, request)
			return
		}

		// ── 4. Role ───────────────────────────────────────────────────────
		if !allowed.Contains(claims.Role) {
			forbid(writer, request)
			return
		}

		// ── 5. Live status ────────────────────────────────────────────────
		identity, err := a.checker.CheckStatus(ctx, claims.PrincipalID, claims.Role)
		if err != nil {
			status := http.StatusInternalServerError
			if appError := apperr.As(err); appError != nil {
				status = appError.HTTPStatus
			}
			ctxutil.GetLogger(ctx).WarnContext(ctx, "authorization_status_check_failed",
				"principal_id", claims.PrincipalID,
				"error", err.Error(),
			)
			respond.Error(writer, request, &apperr.AppError{
				Code:       "UNAUTHENTICATED",
				Message:    "Unauthenticated",
				HTTPStatus: status,
			})
			return
		}

		// ── 6. Attach identity ────────────────────────────────────────────
		noteIdentity(ctx, identity.ID, string(identity.Role))
		next.ServeHTTP(writer, request.WithContext(ctxutil.WithIdentity(ctx, identity)))
	})
}

func forbid(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, apperr.Forbidden("Forbidden"))
}
