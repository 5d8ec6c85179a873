// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/catalog"
	"github.com/dripside-in/dripside-backend/internal/platform/middleware"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/pkg/uuid"
)

// activeChecker accepts every principal as Active.
type activeChecker struct{}

func (activeChecker) CheckStatus(_ context.Context, principalID string, role sec.Role) (*sec.Identity, error) {
	return &sec.Identity{ID: principalID, Role: role, Status: "Active"}, nil
}

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	keys := map[sec.TokenKind]sec.KeyConfig{}
	for _, kind := range []sec.TokenKind{sec.AccessToken, sec.RefreshToken, sec.ActivationToken, sec.ResetToken} {
		keys[kind] = sec.KeyConfig{Secret: []byte(strings.Repeat(string(kind), 8)), TTL: time.Hour}
	}
	tokens, err := sec.NewTokenService("dripside.in", keys)
	require.NoError(t, err)
	return tokens
}

/*
TestHandler_Gating checks per-resource gating over HTTP.
*/
func TestHandler_Gating(t *testing.T) {
	tokens := newTokenService(t)
	authorizer := middleware.NewAuthorizer(tokens, activeChecker{}, "AccessToken")

	categories, _, _ := newService(t, catalog.Categories, true)
	artists, _, _ := newService(t, catalog.Artists, true)
	carts, _, _ := newService(t, catalog.Carts, true)
	cart := mustAdd(t, carts, "Weekend")

	routers := map[string]http.Handler{
		"categories": catalog.NewHandler(categories, authorizer).Routes(),
		"artists":    catalog.NewHandler(artists, authorizer).Routes(),
		"carts":      catalog.NewHandler(carts, authorizer).Routes(),
	}

	bearer := func(role sec.Role) string {
		issued, err := tokens.Issue("principal-"+string(role), "Asha", role, sec.AccessToken)
		require.NoError(t, err)
		return issued.Value
	}
	callers := map[string]string{
		"user":  bearer(sec.RoleUser),
		"admin": bearer(sec.RoleAdmin),
		"super": bearer(sec.RoleSuperAdmin),
	}

	tests := []struct {
		name       string
		resource   string
		caller     string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"artists_list_user", "artists", "user", http.MethodGet, "/", "", http.StatusOK, "Artist is empty"},
		{"artists_list_admin", "artists", "admin", http.MethodGet, "/", "", http.StatusForbidden, ""},
		{"artists_add_user", "artists", "user", http.MethodPost, "/", `{"name":"Ravi"}`, http.StatusCreated, "ART100"},
		{"categories_list_user", "categories", "user", http.MethodGet, "/", "", http.StatusForbidden, ""},
		{"categories_add_admin", "categories", "admin", http.MethodPost, "/", `{"name":"Tees"}`, http.StatusCreated, "Category Tees added successfully"},
		{"categories_upload_admin", "categories", "admin", http.MethodPost, "/image-upload", `{"contentType":"image/png"}`, http.StatusCreated, "categories/2026/10/key"},
		{"carts_no_upload", "carts", "admin", http.MethodPost, "/image-upload", `{"contentType":"image/png"}`, http.StatusMethodNotAllowed, ""},
		{"carts_toggle_admin", "carts", "admin", http.MethodPatch, "/change-status/" + cart.ID, "", http.StatusForbidden, ""},
		{"carts_toggle_super", "carts", "super", http.MethodPatch, "/change-status/" + cart.ID, "", http.StatusOK, "Weekend's status changed to Inactive"},
		{"carts_get_missing", "carts", "admin", http.MethodGet, "/" + uuid.New(), "", http.StatusNotFound, "Cart not found"},
		{"carts_get_malformed_id", "carts", "admin", http.MethodGet, "/missing", "", http.StatusBadRequest, "Must be a valid UUID"},
		{"carts_guest", "carts", "", http.MethodGet, "/", "", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if token := callers[tt.caller]; token != "" {
				request.Header.Set("Authorization", "Bearer "+token)
				request.AddCookie(&http.Cookie{Name: "AccessToken", Value: token})
			}

			recorder := httptest.NewRecorder()
			routers[tt.resource].ServeHTTP(recorder, request)
			assert.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, recorder.Body.String(), tt.wantBody)
			}
		})
	}
}
