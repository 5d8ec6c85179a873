// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package catalog_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/catalog"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/internal/platform/storage"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// memoryRepository is an in-memory catalog.Repository enforcing slug uniqueness.
type memoryRepository struct {
	mu     sync.Mutex
	table  string
	prefix string
	seq    int
	rows   map[string]*catalog.Item
}

func newMemoryRepository(definition catalog.Definition) *memoryRepository {
	return &memoryRepository{
		table:  definition.Table.Table,
		prefix: definition.Table.CodePrefix,
		seq:    100,
		rows:   map[string]*catalog.Item{},
	}
}

func (r *memoryRepository) conflict(item *catalog.Item) error {
	for _, row := range r.rows {
		if row.ID != item.ID && row.Slug == item.Slug {
			return &dberr.DuplicateKeyError{Constraint: r.table + "_name_key", Field: "name"}
		}
	}
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter catalog.Filter) ([]*catalog.Item, catalog.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		items  []*catalog.Item
		counts catalog.Counts
	)
	for _, row := range r.rows {
		if filter.Name != "" && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, row.Status) {
			continue
		}
		if (filter.Deleted == query.DeletedYes && !row.IsDeleted) ||
			(filter.Deleted != query.DeletedYes && filter.Deleted != query.DeletedBoth && row.IsDeleted) {
			continue
		}
		clone := *row
		items = append(items, &clone)
	}
	counts.Total = len(items)
	return items, counts, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*catalog.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *memoryRepository) Create(_ context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(item); err != nil {
		return err
	}
	item.Code = fmt.Sprintf("%s%d", r.prefix, r.seq)
	r.seq++
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	clone := *item
	r.rows[item.ID] = &clone
	return nil
}

func (r *memoryRepository) Save(_ context.Context, item *catalog.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[item.ID]; !ok {
		return dberr.ErrNotFound
	}
	if err := r.conflict(item); err != nil {
		return err
	}
	item.UpdatedAt = time.Now()
	clone := *item
	r.rows[item.ID] = &clone
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := int64(len(r.rows))
	r.rows = map[string]*catalog.Item{}
	return count, nil
}

// fakeUploader records the prefix it was asked to sign for.
type fakeUploader struct {
	prefix string
}

func (u *fakeUploader) PresignUpload(_ context.Context, prefix, contentType string) (*storage.Upload, error) {
	u.prefix = prefix
	return &storage.Upload{Key: prefix + "/2026/10/key", URL: "http://bucket/" + prefix, Method: "PUT"}, nil
}

func newService(t *testing.T, definition catalog.Definition, development bool) (*catalog.Service, *memoryRepository, *fakeUploader) {
	t.Helper()
	repository := newMemoryRepository(definition)
	uploader := &fakeUploader{}
	return catalog.NewService(definition, repository, uploader, development), repository, uploader
}

func mustAdd(t *testing.T, service *catalog.Service, name string) *catalog.Item {
	t.Helper()
	item, err := service.Add(context.Background(), catalog.AddInput{Name: name})
	require.NoError(t, err)
	return item
}

var (
	superAdmin = &sec.Identity{ID: "admin-0", Role: sec.RoleSuperAdmin, Status: "Active"}
	plainAdmin = &sec.Identity{ID: "admin-9", Role: sec.RoleAdmin, Status: "Active"}
	endUser    = &sec.Identity{ID: "user-1", Role: sec.RoleUser, Status: "Active"}
)
