// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/internal/platform/storage"
	"github.com/dripside-in/dripside-backend/internal/platform/validate"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
	"github.com/dripside-in/dripside-backend/pkg/slug"
	"github.com/dripside-in/dripside-backend/pkg/uuid"
)

// Uploader signs direct uploads to object storage.
type Uploader interface {
	PresignUpload(context context.Context, prefix, contentType string) (*storage.Upload, error)
}

var imageContentTypes = []string{"image/png", "image/jpeg", "image/webp"}

// # Service Layer

// Service implements the operations of one catalog resource.
type Service struct {
	definition  Definition
	repository  Repository
	uploader    Uploader
	development bool
	now         func() time.Time
}

// NewService constructs a new [Service]. uploader may be nil for resources
// without images.
func NewService(definition Definition, repository Repository, uploader Uploader, development bool) *Service {
	return &Service{
		definition:  definition,
		repository:  repository,
		uploader:    uploader,
		development: development,
		now:         time.Now,
	}
}

// Definition returns the resource this service manages.
func (service *Service) Definition() Definition {
	return service.definition
}

// # Queries

/*
List returns one page of items visible to the caller.

Description: Non-admin callers only see Active items. Only SuperAdmin and
DeveloperAdmin callers may include soft-deleted rows.
*/
func (service *Service) List(context context.Context, caller *sec.Identity, filter Filter) ([]*Item, pagination.Meta, error) {
	if !caller.Role.IsAdmin() {
		filter.Statuses = []Status{StatusActive}
	}
	if !sec.SuperAdminRoles.Contains(caller.Role) {
		filter.Deleted = query.DeletedNo
	}

	items, counts, err := service.repository.List(context, filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("catalog_service_list_failed: %w", err)
	}

	return items, pagination.NewMeta(filter.Page, counts.Total, counts.Latest), nil
}

// Get returns an item. Soft-deleted items are hidden from all but super admins.
func (service *Service) Get(context context.Context, caller *sec.Identity, id string) (*Item, error) {
	item, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "get")
	}
	if item.IsDeleted && !sec.SuperAdminRoles.Contains(caller.Role) {
		return nil, apperr.NotFound(service.definition.Label)
	}
	return item, nil
}

// # Writes

/*
Add creates an Active item.

Returns:
  - *Item: The created item with its code
  - error: Validation, 409 when the normalized name is taken, database errors
*/
func (service *Service) Add(context context.Context, input AddInput) (*Item, error) {
	item := &Item{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(input.Name),
		Status: StatusActive,
	}
	if service.definition.HasImage() {
		item.Image = strings.TrimSpace(input.Image)
	}
	if service.definition.HasDocuments() {
		item.VerificationDocuments = input.Documents
		if item.VerificationDocuments == nil {
			item.VerificationDocuments = &Documents{}
		}
	}

	if err := service.normalize(item); err != nil {
		return nil, err
	}

	if err := service.repository.Create(context, item); err != nil {
		return nil, fmt.Errorf("catalog_service_create_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "catalog_item_created",
		slog.String("resource", service.definition.Table.Table),
		slog.String("item_id", item.ID),
		slog.String("code", item.Code),
	)
	return item, nil
}

// Edit applies a partial update to a live item.
func (service *Service) Edit(context context.Context, id string, input EditInput) (*Item, error) {
	item, err := service.live(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Image != nil && service.definition.HasImage() {
		item.Image = strings.TrimSpace(*input.Image)
	}
	if input.Documents != nil && service.definition.HasDocuments() {
		item.VerificationDocuments = input.Documents
	}

	if err := service.normalize(item); err != nil {
		return nil, err
	}

	if err := service.repository.Save(context, item); err != nil {
		return nil, fmt.Errorf("catalog_service_edit_failed: %w", err)
	}
	return item, nil
}

// ToggleStatus flips a live item between Active and Inactive.
func (service *Service) ToggleStatus(context context.Context, id string) (*Item, error) {
	item, err := service.live(context, id)
	if err != nil {
		return nil, err
	}

	if item.Status == StatusActive {
		item.Status = StatusInactive
	} else {
		item.Status = StatusActive
	}

	if err := service.repository.Save(context, item); err != nil {
		return nil, fmt.Errorf("catalog_service_toggle_status_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "catalog_item_status_changed",
		slog.String("resource", service.definition.Table.Table),
		slog.String("item_id", item.ID),
		slog.String("status", string(item.Status)),
	)
	return item, nil
}

// # Deletion

// Delete soft-deletes an item and marks it Inactive.
func (service *Service) Delete(context context.Context, id string) error {
	item, err := service.live(context, id)
	if err != nil {
		return err
	}

	now := service.now()
	item.IsDeleted = true
	item.DeletedAt = &now
	item.Status = StatusInactive

	if err := service.repository.Save(context, item); err != nil {
		return fmt.Errorf("catalog_service_delete_failed: %w", err)
	}
	return nil
}

// Restore brings back a soft-deleted item as Active.
func (service *Service) Restore(context context.Context, id string) (*Item, error) {
	item, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "restore")
	}
	if !item.IsDeleted {
		return nil, apperr.NotFound("Deleted " + strings.ToLower(service.definition.Label))
	}

	item.IsDeleted = false
	item.DeletedAt = nil
	item.Status = StatusActive

	if err := service.repository.Save(context, item); err != nil {
		return nil, fmt.Errorf("catalog_service_restore_failed: %w", err)
	}
	return item, nil
}

// PermanentDelete physically removes an item. Development only.
func (service *Service) PermanentDelete(context context.Context, id string) error {
	if !service.development {
		return apperr.Forbidden("Permanent delete is only available in development")
	}

	if err := service.repository.Delete(context, id); err != nil {
		return service.notFound(err, "permanent_delete")
	}
	return nil
}

// DeleteAll physically removes every item. Development only.
func (service *Service) DeleteAll(context context.Context) (int64, error) {
	if !service.development {
		return 0, apperr.Forbidden("Delete all is only available in development")
	}

	count, err := service.repository.DeleteAll(context)
	if err != nil {
		return 0, fmt.Errorf("catalog_service_delete_all_failed: %w", err)
	}

	ctxutil.GetLogger(context).WarnContext(context, "catalog_items_purged",
		slog.String("resource", service.definition.Table.Table),
		slog.Int64("count", count),
	)
	return count, nil
}

// # Uploads

/*
RequestImageUpload returns a presigned PUT URL for a new item image.

Description: The returned key is what clients later send as "image".

Returns:
  - *storage.Upload: The signed request
  - error: NotFound for resources without images, validation, 503 when
    storage is disabled
*/
func (service *Service) RequestImageUpload(context context.Context, contentType string) (*storage.Upload, error) {
	if !service.definition.HasImage() || service.uploader == nil {
		return nil, apperr.NotFound("Image upload")
	}

	validator := &validate.Validator{}
	validator.OneOf(FieldContentType, contentType, imageContentTypes...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	upload, err := service.uploader.PresignUpload(context, service.definition.Table.Table, contentType)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "catalog_image_upload_presigned",
		slog.String("resource", service.definition.Table.Table),
		slog.String("key", upload.Key),
	)
	return upload, nil
}

// # Helpers

// normalize validates the item and derives its slug.
func (service *Service) normalize(item *Item) error {
	item.Slug = slug.From(item.Name)

	validator := &validate.Validator{}
	validator.Required(FieldName, item.Name).
		MaxLen(FieldName, item.Name, maxNameLength).
		Custom(FieldName, item.Name != "" && item.Slug == "", "Must contain letters or digits")
	if item.VerificationDocuments != nil {
		for _, link := range item.VerificationDocuments.SocialMediaURLs {
			validator.URL(FieldDocuments, link)
		}
	}
	return validator.Err()
}

func (service *Service) live(context context.Context, id string) (*Item, error) {
	item, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "lookup")
	}
	if item.IsDeleted {
		return nil, apperr.NotFound(service.definition.Label)
	}
	return item, nil
}

func (service *Service) notFound(err error, action string) error {
	if errors.Is(err, dberr.ErrNotFound) {
		return apperr.NotFound(service.definition.Label)
	}
	return fmt.Errorf("catalog_service_%s_failed: %w", action, err)
}
