package profile

import (
	"context"
	"sync"

	"lazycare/pkg/types"
)

// MemoryStore keeps profiles in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]types.UserProfile
	emailOf map[string]string // id -> email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string]types.UserProfile), emailOf: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, email string) (types.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byEmail[email]
	if !ok {
		return types.UserProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (types.UserProfile, error) {
	m.mu.RLock()
	email, ok := m.emailOf[id]
	m.mu.RUnlock()
	if !ok {
		return types.UserProfile{}, ErrNotFound
	}
	return m.Get(ctx, email)
}

func (m *MemoryStore) Put(_ context.Context, p types.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byEmail[p.Email]; ok && old.ID != p.ID {
		delete(m.emailOf, old.ID)
	}
	m.byEmail[p.Email] = p
	m.emailOf[p.ID] = p.Email
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, email)
	delete(m.emailOf, p.ID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
