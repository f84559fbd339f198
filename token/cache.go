package token

import (
	"context"
	"sync"
)

// Store defines the single slot that holds the cached token.
type Store interface {
	Get(ctx context.Context) (Token, error)
	Put(ctx context.Context, t Token) error
	Expire(ctx context.Context) error

	// ExpireIf invalidates the slot only while it still holds value.
	ExpireIf(ctx context.Context, value string) error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	t     Token
	mutex sync.Mutex
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get retrieves token from cache.
func (ms *MemoryStore) Get(_ context.Context) (Token, error) {
	ms.mutex.Lock()
	t := ms.t
	ms.mutex.Unlock()
	return t, nil
}

// Put inserts token into cache.
func (ms *MemoryStore) Put(_ context.Context, t Token) error {
	ms.mutex.Lock()
	ms.t = t
	ms.mutex.Unlock()
	return nil
}

// Expire invalidates token in cache.
func (ms *MemoryStore) Expire(_ context.Context) error {
	ms.mutex.Lock()
	ms.t.Expire()
	ms.mutex.Unlock()
	return nil
}

// ExpireIf invalidates token in cache if it still holds value.
func (ms *MemoryStore) ExpireIf(_ context.Context, value string) error {
	ms.mutex.Lock()
	if ms.t.Value == value {
		ms.t.Expire()
	}
	ms.mutex.Unlock()
	return nil
}
