// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/config"
	"github.com/dripside-in/dripside-backend/internal/platform/cookie"
)

var cookieNames = config.Cookies{
	AccessToken:    "AccessToken",
	AccessSession:  "AccessSession",
	RefreshToken:   "RefreshToken",
	RefreshSession: "RefreshSession",
}

func newRouter(f *fixture, kind identity.Kind) http.Handler {
	handler := identity.NewHandler(f.service, cookie.NewJar(cookieNames, false))
	router := chi.NewRouter()
	handler.Mount(router, kind)
	return router
}

func cookiesByName(recorder *httptest.ResponseRecorder) map[string]*http.Cookie {
	found := map[string]*http.Cookie{}
	for _, c := range recorder.Result().Cookies() {
		found[c.Name] = c
	}
	return found
}

/*
TestHandler_LoginAndRefresh exercises cookie delivery and the refresh rules over HTTP.
*/
func TestHandler_LoginAndRefresh(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)
	router := newRouter(f, identity.KindUser)

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodPatch, "/login",
		strings.NewReader(`{"username":"asha","password":"Secret#123"}`)))
	require.Equal(t, http.StatusOK, login.Code)

	var body struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Results map[string]string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &body))
	assert.Equal(t, "Login Success", body.Message)

	cookies := cookiesByName(login)
	require.Contains(t, cookies, "AccessToken")
	require.Contains(t, cookies, "RefreshToken")
	assert.True(t, cookies["AccessToken"].HttpOnly)
	assert.Equal(t, "true", cookies["RefreshSession"].Value)
	assert.Equal(t, body.Results["token"], cookies["AccessToken"].Value)

	t.Run("both_cookies_conflict", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/upgrade-access-token", nil)
		request.AddCookie(cookies["AccessToken"])
		request.AddCookie(cookies["RefreshToken"])
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "CONFLICTING_CREDENTIALS")
	})

	t.Run("refresh_only", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/upgrade-access-token", nil)
		request.AddCookie(cookies["RefreshToken"])
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, cookiesByName(recorder), "AccessToken")
	})
}

/*
TestHandler_Routes checks the per-kind route table and message shapes.
*/
func TestHandler_Routes(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t)

	tests := []struct {
		name       string
		kind       identity.Kind
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"bad_json", identity.KindUser, http.MethodPatch, "/login", `{`, http.StatusBadRequest, ""},
		{"forgot_unknown", identity.KindUser, http.MethodPatch, "/forget-password", `{"email":"x@y.z"}`, http.StatusOK, identity.ForgotPasswordMessage},
		{"send_otp", identity.KindUser, http.MethodPatch, "/sent-otp", `{"phone":"9876543210"}`, http.StatusOK, "OTP sent successfully"},
		{"admin_has_no_otp", identity.KindAdmin, http.MethodPatch, "/sent-otp", `{"phone":"9876543210"}`, http.StatusNotFound, ""},
		{"logout_without_cookie", identity.KindAdmin, http.MethodPost, "/logout", ``, http.StatusOK, "Logout Success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			newRouter(f, tt.kind).ServeHTTP(recorder, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantBody != "" {
				assert.Contains(t, recorder.Body.String(), tt.wantBody)
			}
		})
	}
}
