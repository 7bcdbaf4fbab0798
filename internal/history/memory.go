package history

import (
	"context"
	"sync"

	"lazycare/pkg/types"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string][]types.ChatRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: make(map[string][]types.ChatRecord)}
}

func (m *MemoryStore) Append(_ context.Context, rec types.ChatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[rec.Email] = append(m.byEmail[rec.Email], rec)
	return nil
}

func (m *MemoryStore) List(_ context.Context, email string) ([]types.ChatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.byEmail[email]
	// Newest first: reverse append order, as LPUSH does in the redis store.
	out := make([]types.ChatRecord, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, email, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.byEmail[email]
	kept := recs[:0:0]
	for _, r := range recs {
		if !matches(r, messageID) {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(recs) {
		return ErrNotFound
	}
	m.byEmail[email] = kept
	return nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.byEmail[email]) == 0 {
		return ErrNotFound
	}
	delete(m.byEmail, email)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
