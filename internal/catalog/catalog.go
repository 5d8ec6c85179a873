// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

/*
Package catalog implements the simple named resources: Samples, Artists,
Categories and Carts.

The four resources share one [Service], one [PostgresStore] and one
[Handler]. A [Definition] selects the table, the optional columns and the
route gating of each.

# Architecture

  - Entities: [Item], with an image (categories) or verification documents
    (artists) when the table carries them.
  - Uniqueness: names are unique per table after slug normalization.
  - Storage: Category images are uploaded straight to object storage through a
    presigned URL.
*/
package catalog

import (
	"context"
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/database/schema"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// # Field Names

const (
	FieldName        = "name"
	FieldImage       = "image"
	FieldDocuments   = "verificationDocuments"
	FieldContentType = "contentType"
)

const maxNameLength = 100

// # Status

// Status is Active or Inactive.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// # Entities

// Documents are the verification documents attached to an artist.
type Documents struct {
	AdhaarCard      string   `json:"adhaarCard"`
	SocialMediaURLs []string `json:"socialMediaUrls"`
	PanCard         string   `json:"panCard"`
	BankDetails     string   `json:"bankDetails"`
}

// Item is one catalog record.
type Item struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Slug   string `json:"-"`
	Status Status `json:"status"`

	Image                 string     `json:"image,omitempty"`
	VerificationDocuments *Documents `json:"verificationDocuments,omitempty"`

	IsDeleted bool       `json:"isDeleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// # Definitions

// Definition describes one catalog resource.
type Definition struct {
	// Label is the singular display name used in messages ("Category").
	Label string
	// Plural is the display name of a listing ("Categories").
	Plural string
	// Path is the mount point under /api/v1.
	Path  string
	Table schema.CatalogTable
	// UserFacing lets end users list, read and add items instead of admins.
	UserFacing bool
}

// HasImage reports whether items carry an image key.
func (d Definition) HasImage() bool { return d.Table.Image != "" }

// HasDocuments reports whether items carry verification documents.
func (d Definition) HasDocuments() bool { return d.Table.Documents != "" }

var (
	Samples    = Definition{Label: "Sample", Plural: "Samples", Path: "sample", Table: schema.Samples}
	Artists    = Definition{Label: "Artist", Plural: "Artists", Path: "artist", Table: schema.Artists, UserFacing: true}
	Categories = Definition{Label: "Category", Plural: "Categories", Path: "category", Table: schema.Categories}
	Carts      = Definition{Label: "Cart", Plural: "Carts", Path: "cart", Table: schema.Carts}

	// Definitions lists every catalog resource in mount order.
	Definitions = []Definition{Samples, Artists, Categories, Carts}
)

// # Filters & Inputs

// Filter holds the list criteria of a catalog listing.
type Filter struct {
	// Timestamp is the list cursor. Rows created after it are only counted.
	Timestamp *time.Time
	Page      pagination.Params

	Code     string
	Name     string
	Statuses []Status
	Deleted  query.Deleted
}

// Counts are the totals returned alongside a listing.
type Counts struct {
	Total  int
	Latest int
}

// AddInput creates an item. Image and Documents are ignored on tables
// without those columns.
type AddInput struct {
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Documents *Documents `json:"verificationDocuments"`
}

// EditInput is a partial update.
type EditInput struct {
	Name      *string    `json:"name"`
	Image     *string    `json:"image"`
	Documents *Documents `json:"verificationDocuments"`
}

// # Repository Contracts

// Repository is the persistence contract of one catalog table.
type Repository interface {
	// List returns one page of items plus the counters of the envelope.
	List(context context.Context, filter Filter) ([]*Item, Counts, error)

	// FindByID returns an item, deleted or not, or dberr.ErrNotFound.
	FindByID(context context.Context, id string) (*Item, error)

	/*
		Create inserts a new item.

		Description: The code and timestamps are assigned by the database and
		written back to item.

		Returns:
		  - error: *dberr.DuplicateKeyError when the slug is taken
	*/
	Create(context context.Context, item *Item) error

	// Save writes every mutable field of item.
	Save(context context.Context, item *Item) error

	// Delete physically removes an item.
	Delete(context context.Context, id string) error

	// DeleteAll physically removes every item and returns the count.
	DeleteAll(context context.Context) (int64, error)
}
