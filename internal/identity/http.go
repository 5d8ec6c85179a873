// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dripside-in/dripside-backend/internal/platform/cookie"
	requestutil "github.com/dripside-in/dripside-backend/internal/platform/request"
	"github.com/dripside-in/dripside-backend/internal/platform/respond"
)

// # Definitions & Constructors

// Handler exposes the session entry points of one principal kind.
//
// Token delivery is cookie based: every successful login or refresh sets the
// access and refresh cookies and returns the access token in the body.
type Handler struct {
	service *Service
	jar     *cookie.Jar
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, jar *cookie.Jar) *Handler {
	return &Handler{service: service, jar: jar}
}

/*
Mount registers the public session routes of kind on router.

# Endpoints
  - PATCH /login
  - GET   /upgrade-access-token
  - PATCH /forget-password
  - PATCH /reset-password
  - POST  /logout
  - PATCH /sent-otp          (users)
  - PATCH /verify-otp-login  (users)
*/
func (handler *Handler) Mount(router chi.Router, kind Kind) {
	kindHandler := &kindHandler{Handler: handler, kind: kind}

	router.Patch("/login", kindHandler.login)
	router.Get("/upgrade-access-token", handler.refresh)
	router.Patch("/forget-password", kindHandler.forgotPassword)
	router.Patch("/reset-password", kindHandler.resetPassword)
	router.Post("/logout", handler.logout)

	if kind == KindUser {
		router.Patch("/sent-otp", handler.sendOTP)
		router.Patch("/verify-otp-login", handler.verifyOTPLogin)
	}
}

// Deliver writes the session cookies and the access token body.
func (handler *Handler) Deliver(writer http.ResponseWriter, session *Session, status int) {
	handler.jar.SetAccess(writer, session.Access.Value, session.Access.ExpiresAt)
	handler.jar.SetRefresh(writer, session.Refresh.Value, session.Refresh.ExpiresAt)

	body := map[string]string{"token": session.Access.Value}
	if status == http.StatusCreated {
		respond.Created(writer, session.Message, body)
		return
	}
	respond.OK(writer, session.Message, body)
}

type kindHandler struct {
	*Handler
	kind Kind
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

/*
Login authenticates with an identifier and password.

PATCH /api/v1/{user|admin}/login

Response:
  - 200: {token}: Access and refresh cookies set
  - 400: Missing identifier or password
  - 401: Invalid credentials or blocked account
*/
func (handler *kindHandler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), handler.kind, LoginInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.Deliver(writer, session, http.StatusOK)
}

/*
Refresh rotates the session from the refresh cookie.

GET /api/v1/{user|admin}/upgrade-access-token

Response:
  - 200: {token}: New cookie pair
  - 401: No cookies, both cookies, or a used/revoked refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.service.Refresh(request.Context(), RefreshInput{
		AccessToken:  handler.jar.Access(request),
		RefreshToken: handler.jar.Refresh(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.Deliver(writer, session, http.StatusOK)
}

// logout revokes the refresh session and clears both cookie pairs.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Logout(request.Context(), handler.jar.Refresh(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.jar.ClearAccess(writer)
	handler.jar.ClearRefresh(writer)
	respond.OK(writer, "Logout Success", nil)
}

/*
ForgotPassword opens a reset grant.

PATCH /api/v1/{user|admin}/forget-password

Response:
  - 200: Same message whether or not the email is registered
*/
func (handler *kindHandler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.service.ForgotPassword(request.Context(), handler.kind, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, message, nil)
}

// resetPassword completes a reset grant with the mailed token.
func (handler *kindHandler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ResetPassword(request.Context(), handler.kind, input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Password Reset Successfully", nil)
}

// sendOTP issues a login code to a registered phone.
func (handler *Handler) sendOTP(writer http.ResponseWriter, request *http.Request) {
	var input phoneRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SendOTP(request.Context(), input.Phone); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "OTP sent successfully", nil)
}

/*
VerifyOTPLogin signs a user in with phone and code.

PATCH /api/v1/user/verify-otp-login

Response:
  - 200: {token}: Access and refresh cookies set
  - 401: Invalid, expired or locked-out code
*/
func (handler *Handler) verifyOTPLogin(writer http.ResponseWriter, request *http.Request) {
	var input phoneRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.VerifyOTPLogin(request.Context(), input.Phone, input.OTP)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.Deliver(writer, session, http.StatusOK)
}
