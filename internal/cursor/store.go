package cursor

import (
	"context"
	"sync"
)

// Store records which remote alert ids have already produced a case.  The
// polling engine treats this as an injected capability, the backing state is
// owned by the host environment and outlives any single poll invocation.
//
// TryMark is the atomic check-and-mark operation: it returns true only for
// the single caller that claims a previously unseen id, which is what keeps
// concurrent poll cycles from creating duplicate cases.
type Store interface {
	IsIngested(ctx context.Context, remoteID string) (bool, error)
	TryMark(ctx context.Context, remoteID string) (bool, error)
	Unmark(ctx context.Context, remoteID string) error
}

// MemoryStore is a process-local Store used by tests and the one-shot CLI.
type MemoryStore struct {
	mutex sync.Mutex
	ids   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

func (m *MemoryStore) IsIngested(ctx context.Context, remoteID string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, found := m.ids[remoteID]
	return found, nil
}

func (m *MemoryStore) TryMark(ctx context.Context, remoteID string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, found := m.ids[remoteID]; found {
		return false, nil
	}
	m.ids[remoteID] = struct{}{}
	return true, nil
}

func (m *MemoryStore) Unmark(ctx context.Context, remoteID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.ids, remoteID)
	return nil
}
