// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// Every response (success or error) follows the same JSON envelope:
//
//	{"success": true,  "message": "...", "results": ...}
//	{"success": false, "message": "...", "code": "...", "details": [...]}
//
// List responses flatten the pagination counters next to "results".
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PaginatedEnvelope is the JSON envelope for list responses.
type PaginatedEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Results any    `json:"results"`
	pagination.Meta
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response.
func OK(writer http.ResponseWriter, message string, results any) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Success: true, Message: message, Results: results})
}

// Created writes a 201 Created response.
func Created(writer http.ResponseWriter, message string, results any) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Success: true, Message: message, Results: results})
}

// Paginated writes a 200 OK list response with its counters.
func Paginated(writer http.ResponseWriter, message string, results any, metadata pagination.Meta) {
	JSON(writer, http.StatusOK, PaginatedEnvelope{Success: true, Message: message, Results: results, Meta: metadata})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
//
// Duplicate-key errors from the persistence layer become 409 Conflict.
// Anything that is not an [apperr.AppError] is logged and hidden behind a 500.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	appError := apperr.As(dberr.ToAppError(err))
	if appError == nil {
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Success: false,
		Message: appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}
