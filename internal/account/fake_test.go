// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package account_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/account"
	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/config"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/pkg/query"
)

// memoryRepository is an in-memory account.Repository.
type memoryRepository struct {
	mu     sync.Mutex
	kind   identity.Kind
	prefix string
	seq    int
	rows   map[string]*identity.Principal
}

func newMemoryRepository(kind identity.Kind) *memoryRepository {
	prefix := "USR"
	if kind == identity.KindAdmin {
		prefix = "ADM"
	}
	return &memoryRepository{kind: kind, prefix: prefix, seq: 100, rows: map[string]*identity.Principal{}}
}

func (r *memoryRepository) get(id string) *identity.Principal {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *r.rows[id]
	return &clone
}

func (r *memoryRepository) duplicate(p *identity.Principal) error {
	for _, row := range r.rows {
		if row.ID == p.ID {
			continue
		}
		for field, taken := range map[string]bool{
			"username": row.Username == p.Username,
			"email":    p.Email != "" && row.Email == p.Email,
			"phone":    p.Phone != "" && row.Phone == p.Phone,
		} {
			if taken {
				return &dberr.DuplicateKeyError{Constraint: fmt.Sprintf("users_%s_key", field), Field: field}
			}
		}
	}
	return nil
}

func (r *memoryRepository) find(match func(*identity.Principal) bool) (*identity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if match(row) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*identity.Principal, error) {
	return r.find(func(p *identity.Principal) bool { return p.ID == id })
}

func (r *memoryRepository) FindByLogin(_ context.Context, lookup identity.LoginLookup) (*identity.Principal, error) {
	return r.find(func(p *identity.Principal) bool {
		return !p.IsDeleted && ((lookup.Username != "" && p.Username == lookup.Username) ||
			(lookup.Email != "" && p.Email == lookup.Email) ||
			(lookup.Phone != "" && p.Phone == lookup.Phone))
	})
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (*identity.Principal, error) {
	return r.find(func(p *identity.Principal) bool { return !p.IsDeleted && p.Email == email })
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (*identity.Principal, error) {
	return r.find(func(p *identity.Principal) bool { return !p.IsDeleted && p.Phone == phone })
}

func (r *memoryRepository) FindResettable(_ context.Context, id string) (*identity.Principal, error) {
	return r.find(func(p *identity.Principal) bool { return p.ID == id && !p.IsDeleted && p.ResetPasswordAccess })
}

func (r *memoryRepository) Create(_ context.Context, p *identity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.duplicate(p); err != nil {
		return err
	}
	p.Code = fmt.Sprintf("%s%d", r.prefix, r.seq)
	r.seq++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *memoryRepository) Save(_ context.Context, p *identity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[p.ID]
	if !ok {
		return dberr.ErrNotFound
	}
	if stored.Version != p.Version {
		return apperr.Conflict("modified concurrently")
	}
	if err := r.duplicate(p); err != nil {
		return err
	}
	p.Version++
	clone := *p
	r.rows[p.ID] = &clone
	return nil
}

func (r *memoryRepository) Touch(_ context.Context, id string, at time.Time) (identity.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[id]
	if !ok {
		return "", dberr.ErrNotFound
	}
	if stored.Status == identity.StatusInactive {
		stored.Status = identity.StatusActive
	}
	stored.LastUsed = &at
	return stored.Status, nil
}

func (r *memoryRepository) List(_ context.Context, filter account.Filter) ([]*identity.Principal, account.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := func(p *identity.Principal) bool {
		if filter.Role != "" && p.Role != filter.Role {
			return false
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			return false
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			return false
		}
		switch filter.Deleted {
		case query.DeletedYes:
			return p.IsDeleted
		case query.DeletedBoth:
			return true
		default:
			return !p.IsDeleted
		}
	}

	var (
		results []*identity.Principal
		counts  account.Counts
	)
	for _, row := range r.rows {
		if !matches(row) {
			continue
		}
		if filter.Timestamp != nil && row.CreatedAt.After(*filter.Timestamp) {
			counts.Latest++
			continue
		}
		clone := *row
		results = append(results, &clone)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })
	counts.Total = len(results)
	return results, counts, nil
}

func (r *memoryRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	_, err := r.find(func(p *identity.Principal) bool { return p.Username == username })
	return err == nil, nil
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
	r.rows = map[string]*identity.Principal{}
	return count, nil
}

// recordingNotifier keeps every message in memory.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) last() notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.messages[len(n.messages)-1]
}

type fixture struct {
	users        *memoryRepository
	admins       *memoryRepository
	userService  *account.Service
	adminService *account.Service
	identity     *identity.Service
	notifier     *recordingNotifier
	redis        *miniredis.Miniredis
	tokens       *sec.TokenService
}

func newFixture(t *testing.T, development bool) *fixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	keys := map[sec.TokenKind]sec.KeyConfig{}
	for _, kind := range []sec.TokenKind{sec.AccessToken, sec.RefreshToken, sec.ActivationToken, sec.ResetToken} {
		keys[kind] = sec.KeyConfig{Secret: []byte(strings.Repeat(string(kind), 8)), TTL: time.Hour}
	}
	tokens, err := sec.NewTokenService("dripside.in", keys)
	require.NoError(t, err)

	f := &fixture{
		users:    newMemoryRepository(identity.KindUser),
		admins:   newMemoryRepository(identity.KindAdmin),
		notifier: &recordingNotifier{},
		redis:    server,
		tokens:   tokens,
	}

	f.identity = identity.NewService(
		identity.NewRegistry(f.users, f.admins),
		tokens,
		identity.NewSessionStore(client),
		f.notifier,
		config.OTP{MaxFailedAttempts: 5, ExpireTime: 5 * time.Minute, FailedResetWindow: 5 * time.Hour},
	)
	f.userService = account.NewService(identity.KindUser, f.users, f.identity, f.notifier, development)
	f.adminService = account.NewService(identity.KindAdmin, f.admins, f.identity, f.notifier, development)
	return f
}

var (
	superAdmin = &sec.Identity{ID: "admin-0", Name: "Root", Role: sec.RoleSuperAdmin, Status: "Active"}
	plainAdmin = &sec.Identity{ID: "admin-9", Name: "Ops", Role: sec.RoleAdmin, Status: "Active"}
)

func (f *fixture) addUser(t *testing.T, username, phone string) *identity.Principal {
	t.Helper()
	principal, err := f.userService.Add(context.Background(), account.AddInput{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@dripside.in",
		Phone:    phone,
		Password: "Secret#123",
	})
	require.NoError(t, err)
	return principal
}
