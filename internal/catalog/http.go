// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package catalog

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dripside-in/dripside-backend/internal/platform/middleware"
	requestutil "github.com/dripside-in/dripside-backend/internal/platform/request"
	"github.com/dripside-in/dripside-backend/internal/platform/respond"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// # Definitions & Constructors

// Handler implements the HTTP layer of one catalog resource.
type Handler struct {
	service    *Service
	authorizer *middleware.Authorizer
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(service *Service, authorizer *middleware.Authorizer) *Handler {
	return &Handler{service: service, authorizer: authorizer}
}

/*
Routes returns a [chi.Router] for /api/v1/<resource>.

# Gating
  - list, get, add: UserOnly for user-facing resources, AdminOrAbove otherwise
  - edit, soft delete, image upload: AdminOrAbove
  - change-status, restore, permanent delete: SuperAdminOnly
*/
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	read := handler.authorizer.AdminOrAbove
	if handler.service.Definition().UserFacing {
		read = handler.authorizer.UserOnly
	}
	admin := handler.authorizer.AdminOrAbove
	super := handler.authorizer.SuperAdminOnly

	router.With(read).Get("/", handler.list)
	router.With(read).Post("/", handler.add)

	if handler.service.Definition().HasImage() {
		router.With(admin).Post("/image-upload", handler.requestImageUpload)
	}

	router.With(super).Patch("/change-status/{id}", handler.toggleStatus)
	router.With(super).Put("/restore/{id}", handler.restore)
	router.With(super).Delete("/delete/all", handler.deleteAll)
	router.With(super).Delete("/delete/{id}", handler.permanentDelete)

	router.With(read).Get("/{id}", handler.get)
	router.With(admin).Patch("/{id}", handler.edit)
	router.With(admin).Delete("/{id}", handler.delete)

	return router
}

func (handler *Handler) label() string {
	return handler.service.Definition().Label
}

// # Queries

/*
List returns a filtered page of items.

Request:
  - Query: timestamp, page, limit, code, name, status, deleted

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
		Code:      values.Get("code"),
		Name:      values.Get("name"),
		Deleted:   query.ParseDeleted(values.Get("deleted")),
	}
	for _, status := range query.StringSlice(values.Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}

	items, meta, err := handler.service.List(request.Context(), caller, filter)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := handler.service.Definition().Plural + " fetched"
	if len(items) == 0 {
		message = handler.label() + " is empty"
	}
	respond.Paginated(writer, message, items, meta)
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

	item, err := handler.service.Get(request.Context(), caller, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.label()+" details fetched", item)
}

// # Writes

func (handler *Handler) add(writer http.ResponseWriter, request *http.Request) {
	var input AddInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Add(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, fmt.Sprintf("%s %s added successfully", handler.label(), item.Name), item)
}

func (handler *Handler) edit(writer http.ResponseWriter, request *http.Request) {
	var input EditInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Edit(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.label()+" edited successfully", item)
}

func (handler *Handler) toggleStatus(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.ToggleStatus(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, fmt.Sprintf("%s's status changed to %s", item.Name, item.Status), item)
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
}

// requestImageUpload hands out a presigned PUT URL for an item image.
func (handler *Handler) requestImageUpload(writer http.ResponseWriter, request *http.Request) {
	var input uploadRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	upload, err := handler.service.RequestImageUpload(request.Context(), input.ContentType)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, "Upload URL created", upload)
}

// # Deletion

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

	respond.OK(writer, handler.label()+" deleted successfully", nil)
}

func (handler *Handler) restore(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.IDParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	item, err := handler.service.Restore(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.label()+" restored successfully", item)
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

	respond.OK(writer, handler.label()+" permanently deleted", nil)
}

func (handler *Handler) deleteAll(writer http.ResponseWriter, request *http.Request) {
	count, err := handler.service.DeleteAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, fmt.Sprintf("%d %s deleted", count, strings.ToLower(handler.service.Definition().Plural)), nil)
}
