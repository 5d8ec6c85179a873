// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package cookie delivers session tokens to browsers.
//
// Every token cookie is HttpOnly and travels with a readable companion
// "session flag" cookie so front-ends can tell a session exists without
// touching the token itself.
package cookie

import (
	"net/http"
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/config"
)

// Jar sets, reads and clears the access and refresh cookies.
type Jar struct {
	names  config.Cookies
	secure bool
}

// NewJar creates a Jar. Cookies are marked Secure when secure is true
// (production).
func NewJar(names config.Cookies, secure bool) *Jar {
	return &Jar{names: names, secure: secure}
}

// SetAccess delivers an access token until expiresAt.
func (jar *Jar) SetAccess(writer http.ResponseWriter, token string, expiresAt time.Time) {
	jar.set(writer, jar.names.AccessToken, jar.names.AccessSession, token, expiresAt)
}

// SetRefresh delivers a refresh token until expiresAt.
func (jar *Jar) SetRefresh(writer http.ResponseWriter, token string, expiresAt time.Time) {
	jar.set(writer, jar.names.RefreshToken, jar.names.RefreshSession, token, expiresAt)
}

// ClearAccess expires the access cookie pair.
func (jar *Jar) ClearAccess(writer http.ResponseWriter) {
	jar.clear(writer, jar.names.AccessToken, jar.names.AccessSession)
}

// ClearRefresh expires the refresh cookie pair.
func (jar *Jar) ClearRefresh(writer http.ResponseWriter) {
	jar.clear(writer, jar.names.RefreshToken, jar.names.RefreshSession)
}

// Access returns the access token cookie value, or "".
func (jar *Jar) Access(request *http.Request) string {
	return value(request, jar.names.AccessToken)
}

// Refresh returns the refresh token cookie value, or "".
func (jar *Jar) Refresh(request *http.Request) string {
	return value(request, jar.names.RefreshToken)
}

func (jar *Jar) set(writer http.ResponseWriter, tokenName, flagName, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     tokenName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		Secure:   jar.secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(writer, &http.Cookie{
		Name:     flagName,
		Value:    "true",
		Path:     "/",
		Expires:  expiresAt,
		Secure:   jar.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (jar *Jar) clear(writer http.ResponseWriter, tokenName, flagName string) {
	for _, name := range []string{tokenName, flagName} {
		http.SetCookie(writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   jar.secure,
			HttpOnly: name == tokenName,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func value(request *http.Request, name string) string {
	c, err := request.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
