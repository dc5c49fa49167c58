package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process. Entries are evicted lazily on read
// and by the go-cache janitor every cleanupInterval.
type MemoryStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

var _ Store = (*MemoryStore)(nil)

// NewMemory creates an in-process store. A non-positive cleanupInterval
// disables the background janitor.
func NewMemory(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.mu.Lock()
	s.items.Set(key, value, ttl)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetDel(_ context.Context, key string) (string, error) {
	// go-cache has no compare-and-delete, so the pair runs under our lock.
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s.items.Delete(key)
	return v.(string), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.items.Flush()
	return nil
}
