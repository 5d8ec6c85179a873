// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package account

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/middleware"
	requestutil "github.com/dripside-in/dripside-backend/internal/platform/request"
	"github.com/dripside-in/dripside-backend/internal/platform/respond"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// # Gating

// Gate is an authorization middleware.
type Gate func(http.Handler) http.Handler

// Gates assigns an authorization gate to each route group.
type Gates struct {
	List     Gate
	Add      Gate
	Self     Gate
	Get      Gate
	Edit     Gate
	Maintain Gate
}

// UserGates is the gating of /api/v1/user.
func UserGates(authorizer *middleware.Authorizer) Gates {
	return Gates{
		List:     authorizer.AdminOrAbove,
		Add:      authorizer.AdminOrAbove,
		Self:     authorizer.UserOnly,
		Get:      authorizer.AnyAuthenticated,
		Edit:     authorizer.AdminOrAbove,
		Maintain: authorizer.SuperAdminOnly,
	}
}

// AdminGates is the gating of /api/v1/admin.
func AdminGates(authorizer *middleware.Authorizer) Gates {
	return Gates{
		List:     authorizer.AdminOrAbove,
		Add:      authorizer.SuperAdminOnly,
		Self:     authorizer.AdminOrAbove,
		Get:      authorizer.AdminOrAbove,
		Edit:     authorizer.SuperAdminOnly,
		Maintain: authorizer.SuperAdminOnly,
	}
}

// # Definitions & Constructors

// Handler implements the HTTP layer of one principal kind.
type Handler struct {
	service  *Service
	sessions *identity.Handler
	gates    Gates
}

// NewHandler constructs a new account [Handler]. sessions mounts the login
// and password recovery routes on the same router.
func NewHandler(service *Service, sessions *identity.Handler, gates Gates) *Handler {
	return &Handler{service: service, sessions: sessions, gates: gates}
}

// Routes returns a [chi.Router] with the resource and session endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	gates := handler.gates

	router.With(gates.List).Get("/", handler.list)
	router.With(gates.Add).Post("/", handler.add)

	// Self service
	router.With(gates.Self).Get("/profile", handler.profile)
	router.With(gates.Self).Patch("/profile", handler.updateProfile)
	router.With(gates.Self).Patch("/change-username", handler.changeUsername)
	router.With(gates.Self).Patch("/change-phone", handler.changePhone)
	router.With(gates.Self).Patch("/change-email", handler.changeEmail)
	router.With(gates.Self).Patch("/change-password", handler.changePassword)

	// Public
	if handler.service.Kind() == identity.KindUser {
		router.Post("/register", handler.register)
	}
	router.Get("/check-username", handler.checkUsername)
	handler.sessions.Mount(router, handler.service.Kind())

	// Maintenance
	router.With(gates.Maintain).Patch("/change-status/{id}", handler.changeStatus)
	router.With(gates.Maintain).Put("/restore/{id}", handler.restore)
	router.With(gates.Maintain).Delete("/delete/all", handler.deleteAll)
	router.With(gates.Maintain).Delete("/delete/{id}", handler.permanentDelete)
	router.With(gates.Maintain).Patch("/send-login-credentials/{id}", handler.sendLoginCredentials)

	// Single resource
	router.With(gates.Get).Get("/{id}", handler.get)
	router.With(gates.Edit).Patch("/{id}", handler.edit)
	router.With(gates.Edit).Delete("/{id}", handler.delete)

	return router
}

// # Request Payloads

type addRequest struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	Role     sec.Role `json:"role"`
}

type editRequest struct {
	Name     *string   `json:"name"`
	Username *string   `json:"username"`
	Email    *string   `json:"email"`
	Phone    *string   `json:"phone"`
	Role     *sec.Role `json:"role"`
	Password *string   `json:"password"`
}

type valueRequest struct {
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Status   identity.Status `json:"status"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// # Queries

/*
List returns a filtered page of principals.

GET /api/v1/{user|admin}

Request:
  - Query: timestamp, page, limit, role, name, username, email, phone, status, deleted

Response:
  - 200: Paginated envelope
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	values := request.URL.Query()
	filter := Filter{
		Timestamp: query.Timestamp(values.Get("timestamp")),
		Page:      pagination.FromRequest(request),
		Role:      sec.Role(values.Get("role")),
		Name:      values.Get("name"),
		Username:  values.Get("username"),
		Email:     values.Get("email"),
		Phone:     values.Get("phone"),
		Deleted:   query.ParseDeleted(values.Get("deleted")),
	}
	for _, status := range query.StringSlice(values.Get("status")) {
		filter.Statuses = append(filter.Statuses, identity.Status(status))
	}

	principals, meta, err := handler.service.List(request.Context(), caller, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	resource := handler.service.resource()
	message := resource + "s fetched"
	if len(principals) == 0 {
		message = resource + " is empty"
	}
	respond.Paginated(writer, message, principals, meta)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.Get(request.Context(), caller, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.resource()+" details fetched", principal)
}

func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.Profile(request.Context(), caller)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Profile fetched", principal)
}

// checkUsername answers whether ?username= is free.
func (handler *Handler) checkUsername(writer http.ResponseWriter, request *http.Request) {
	available, err := handler.service.CheckUsername(request.Context(), request.URL.Query().Get("username"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := "Username is available"
	if !available {
		message = "Username is already taken"
	}
	respond.OK(writer, message, map[string]bool{"available": available})
}

// # Creation

/*
Add creates a principal and mails its credentials.

POST /api/v1/{user|admin}

Response:
  - 201: Created principal
  - 400: Validation failure
  - 409: Username, email or phone already exists
*/
func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	var input addRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.Add(request.Context(), AddInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, fmt.Sprintf("%s's account created successfully", principal.Username), principal)
}

// register signs up an end user and starts a session.
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input addRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	input.Role = ""

	session, err := handler.service.Register(request.Context(), AddInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sessions.Deliver(writer, session, http.StatusCreated)
}

// # Updates

func (handler *Handler) edit(writer http.ResponseWriter, request *http.Request) {
	var input editRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.Edit(request.Context(), id, EditInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.resource()+" edited successfully", principal)
}

func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	handler.withValue(writer, request, func(caller *sec.Identity, input valueRequest) (*identity.Principal, string, error) {
		principal, err := handler.service.UpdateProfile(request.Context(), caller, input.Name)
		return principal, "Profile Updated Successfully", err
	})
}

func (handler *Handler) changeUsername(writer http.ResponseWriter, request *http.Request) {
	handler.withValue(writer, request, func(caller *sec.Identity, input valueRequest) (*identity.Principal, string, error) {
		principal, err := handler.service.ChangeUsername(request.Context(), caller, input.Username)
		if err != nil {
			return nil, "", err
		}
		return principal, fmt.Sprintf("%s's username was changed to %s", principal.Name, principal.Username), nil
	})
}

func (handler *Handler) changeEmail(writer http.ResponseWriter, request *http.Request) {
	handler.withValue(writer, request, func(caller *sec.Identity, input valueRequest) (*identity.Principal, string, error) {
		principal, err := handler.service.ChangeEmail(request.Context(), caller, input.Email)
		if err != nil {
			return nil, "", err
		}
		return principal, fmt.Sprintf("%s's email was changed to %s", principal.Name, principal.Email), nil
	})
}

func (handler *Handler) changePhone(writer http.ResponseWriter, request *http.Request) {
	handler.withValue(writer, request, func(caller *sec.Identity, input valueRequest) (*identity.Principal, string, error) {
		principal, err := handler.service.ChangePhone(request.Context(), caller, input.Phone)
		if err != nil {
			return nil, "", err
		}
		return principal, fmt.Sprintf("%s's phone was changed to %s", principal.Name, principal.Phone), nil
	})
}

// withValue decodes a single-value body for the authenticated caller.
func (handler *Handler) withValue(
	writer http.ResponseWriter,
	request *http.Request,
	apply func(*sec.Identity, valueRequest) (*identity.Principal, string, error),
) {
	caller, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input valueRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, message, err := apply(caller, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, message, principal)
}

func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	caller, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), caller, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Password changed successfully", nil)
}

// # Maintenance

func (handler *Handler) changeStatus(writer http.ResponseWriter, request *http.Request) {
	var input valueRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.ChangeStatus(request.Context(), id, input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, fmt.Sprintf("%s's status changed to %s", principal.Name, principal.Status), principal)
}

func (handler *Handler) sendLoginCredentials(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	email, err := handler.service.SendLoginCredentials(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, "Login credentials sent to "+email, nil)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.resource()+" deleted successfully", nil)
}

func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.service.Restore(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.resource()+" restored successfully", principal)
}

func (handler *Handler) permanentDelete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PermanentDelete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.service.resource()+" permanently deleted", nil)
}

func (handler *Handler) deleteAll(writer http.ResponseWriter, request *http.Request) {
	count, err := handler.service.DeleteAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, fmt.Sprintf("%d %ss deleted", count, strings.ToLower(handler.service.resource())), nil)
}
