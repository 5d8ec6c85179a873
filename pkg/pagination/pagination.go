// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how page-based navigation is requested via query parameters
// and how the resulting counters are delivered in the list envelope.
// A limit of -1 disables paging and returns every matching row.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 10
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// Unlimited is the limit value that disables paging.
	Unlimited = -1
)

// Params holds the parsed page and limit from a request's query string.
type Params struct {
	Page  int
	Limit int
}

// All reports whether paging is disabled.
func (p Params) All() bool {
	return p.Limit == Unlimited
}

// Offset returns the SQL OFFSET value derived from Page and Limit.
func (p Params) Offset() int {
	if p.All() || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata flattened into list responses.
type Meta struct {
	CurrentPage int `json:"currentPage"`
	LatestCount int `json:"latestCount"`
	TotalCount  int `json:"totalCount"`
	TotalPages  int `json:"totalPages"`
}

// NewMeta constructs pagination metadata for a response.
//
// latest is the number of rows created after the caller's timestamp cursor;
// it is zero when no cursor was supplied.
func NewMeta(params Params, total, latest int) Meta {
	totalPages := 1
	if !params.All() && params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}
	if total == 0 {
		totalPages = 0
	}

	return Meta{
		CurrentPage: params.Page,
		LatestCount: latest,
		TotalCount:  total,
		TotalPages:  totalPages,
	}
}

// FromRequest parses "page" and "limit" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid or negative values fall back to [DefaultPage] / [DefaultLimit];
// limits above [MaxLimit] are clamped. A limit of -1 is kept as [Unlimited].
func FromRequest(r *http.Request) Params {
	page := parseIntParam(r, "page", DefaultPage)
	limit := parseIntParam(r, "limit", DefaultLimit)

	if page < 1 {
		page = DefaultPage
	}

	switch {
	case limit == Unlimited:
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// parseIntParam parses a single integer query parameter with a fallback default.
func parseIntParam(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}

	return n
}
