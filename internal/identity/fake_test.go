// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/config"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// memoryDirectory is an in-memory Directory with the same version semantics
// as the Postgres binding.
type memoryDirectory struct {
	mu   sync.Mutex
	kind identity.Kind
	rows map[string]*identity.Principal
}

func newMemoryDirectory(kind identity.Kind) *memoryDirectory {
	return &memoryDirectory{kind: kind, rows: map[string]*identity.Principal{}}
}

func (d *memoryDirectory) put(p *identity.Principal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.Kind = d.kind
	clone := *p
	d.rows[p.ID] = &clone
}

func (d *memoryDirectory) get(id string) *identity.Principal {
	d.mu.Lock()
	defer d.mu.Unlock()
	clone := *d.rows[id]
	return &clone
}

func (d *memoryDirectory) find(match func(*identity.Principal) bool) (*identity.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, row := range d.rows {
		if match(row) {
			clone := *row
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (d *memoryDirectory) FindByID(_ context.Context, id string) (*identity.Principal, error) {
	return d.find(func(p *identity.Principal) bool { return p.ID == id })
}

func (d *memoryDirectory) FindByLogin(_ context.Context, lookup identity.LoginLookup) (*identity.Principal, error) {
	return d.find(func(p *identity.Principal) bool {
		return !p.IsDeleted && ((lookup.Username != "" && p.Username == lookup.Username) ||
			(lookup.Email != "" && p.Email == lookup.Email) ||
			(lookup.Phone != "" && p.Phone == lookup.Phone))
	})
}

func (d *memoryDirectory) FindByEmail(_ context.Context, email string) (*identity.Principal, error) {
	return d.find(func(p *identity.Principal) bool { return !p.IsDeleted && p.Email == email })
}

func (d *memoryDirectory) FindByPhone(_ context.Context, phone string) (*identity.Principal, error) {
	return d.find(func(p *identity.Principal) bool { return !p.IsDeleted && p.Phone == phone })
}

func (d *memoryDirectory) FindResettable(_ context.Context, id string) (*identity.Principal, error) {
	return d.find(func(p *identity.Principal) bool {
		return p.ID == id && !p.IsDeleted && p.ResetPasswordAccess
	})
}

func (d *memoryDirectory) Save(_ context.Context, p *identity.Principal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.rows[p.ID]
	if !ok {
		return dberr.ErrNotFound
	}
	if stored.Version != p.Version {
		return apperr.Conflict("User was modified concurrently")
	}
	p.Version++
	clone := *p
	d.rows[p.ID] = &clone
	return nil
}

func (d *memoryDirectory) Touch(_ context.Context, id string, at time.Time) (identity.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.rows[id]
	if !ok {
		return "", dberr.ErrNotFound
	}
	if stored.Status == identity.StatusInactive {
		stored.Status = identity.StatusActive
	}
	stored.LastUsed = &at
	return stored.Status, nil
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
	if len(n.messages) == 0 {
		return notify.Message{}
	}
	return n.messages[len(n.messages)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// fixture wires a Service over in-memory directories and miniredis.
type fixture struct {
	service  *identity.Service
	users    *memoryDirectory
	admins   *memoryDirectory
	sessions *identity.RedisSessionStore
	tokens   *sec.TokenService
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
	clock    *time.Time
}

var otpConfig = config.OTP{
	MaxFailedAttempts: 5,
	ExpireTime:        5 * time.Minute,
	FailedResetWindow: 5 * time.Hour,
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	keys := map[sec.TokenKind]sec.KeyConfig{}
	for _, kind := range []sec.TokenKind{sec.AccessToken, sec.RefreshToken, sec.ActivationToken, sec.ResetToken} {
		keys[kind] = sec.KeyConfig{Secret: []byte(strings.Repeat(string(kind), 8)), TTL: 24 * time.Hour}
	}
	tokens, err := sec.NewTokenService("dripside.in", keys)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		users:    newMemoryDirectory(identity.KindUser),
		admins:   newMemoryDirectory(identity.KindAdmin),
		sessions: identity.NewSessionStore(client),
		tokens:   tokens,
		notifier: &recordingNotifier{},
		redis:    server,
		clock:    &now,
	}

	registry := identity.NewRegistry(f.users, f.admins)
	f.service = identity.NewService(registry, tokens, f.sessions, f.notifier, otpConfig).
		WithClock(func() time.Time { return *f.clock })

	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

// seedUser stores an Active user with password "Secret#123".
func (f *fixture) seedUser(t *testing.T, mutate ...func(*identity.Principal)) *identity.Principal {
	t.Helper()
	hash, err := sec.HashSecret("Secret#123")
	require.NoError(t, err)

	principal := &identity.Principal{
		ID:           "user-1",
		Code:         "USR100",
		Role:         sec.RoleUser,
		Name:         "Asha",
		Username:     "asha",
		Email:        "asha@dripside.in",
		Phone:        "9876543210",
		Status:       identity.StatusActive,
		PasswordHash: hash,
	}
	for _, m := range mutate {
		m(principal)
	}
	f.users.put(principal)
	return f.users.get(principal.ID)
}
