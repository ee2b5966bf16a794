// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package auth_test

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/user"
)

var _ auth.UserStore = (*memStore)(nil)

// memStore is an in-memory UserStore with the same atomicity as the
// PostgreSQL repository.
type memStore struct {
	mu       sync.Mutex
	users    map[ulid.ULID]user.User
	profiles map[ulid.ULID]user.Profile
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[ulid.ULID]user.User),
		profiles: make(map[ulid.ULID]user.Profile),
	}
}

func (m *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateWithProfile(_ context.Context, u *user.User, p *user.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	m.users[u.ID] = *u
	m.profiles[p.UserID] = *p
	m.writes++
	return nil
}

func (m *memStore) GetByID(_ context.Context, id ulid.ULID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memStore) UpdatePasswordHash(_ context.Context, id ulid.ULID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	m.writes++
	return nil
}

func (m *memStore) SetRefreshTokenHash(_ context.Context, id ulid.ULID, hash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.RefreshTokenHash = hash
	m.users[id] = u
	m.writes++
	return nil
}

func (m *memStore) SwapRefreshTokenHash(_ context.Context, id ulid.ULID, expected, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != expected {
		return user.ErrRefreshTokenChanged
	}
	u.RefreshTokenHash = &next
	m.users[id] = u
	m.writes++
	return nil
}

func (m *memStore) refreshHash(id ulid.ULID) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].RefreshTokenHash
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
