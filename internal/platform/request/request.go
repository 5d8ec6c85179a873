// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	body := http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
IDParam retrieves the {id} URL parameter and checks that it is a UUID.

Returns:
  - string: The id
  - error: VALIDATION_ERROR naming the id field
*/
func IDParam(request *http.Request) (string, error) {
	id := chi.URLParam(request, "id")
	if err := (&validate.Validator{}).UUID("id", id).Err(); err != nil {
		return "", err
	}
	return id, nil
}

/*
Identity extracts the authorized caller from the request context.

Returns nil if the route is not behind an authorization gate.
*/
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetIdentity(request.Context())
}

/*
RequiredIdentity ensures the request carries a persisted caller.

Returns:
  - *sec.Identity: The authorized caller
  - error: apperr.Unauthorized if the caller is missing or a guest
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {
	identity := ctxutil.GetIdentity(request.Context())
	if identity == nil || identity.IsGuest() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return identity, nil
}
