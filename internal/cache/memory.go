package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore implements Store in process memory. It backs tests and
// single-instance deployments without Redis; counters and entries are not
// shared across replicas.
type MemoryStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	c := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go c.Start()

	return &MemoryStore{cache: c}
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	item := s.cache.Get(key)
	if item == nil {
		return nil, ErrNotFound
	}
	return item.Value(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(1)
	ttl := window
	if item := s.cache.Get(key); item != nil {
		if n, err := strconv.ParseInt(string(item.Value()), 10, 64); err == nil {
			count = n + 1
		}
		// keep the original window
		if remaining := time.Until(item.ExpiresAt()); remaining > 0 {
			ttl = remaining
		}
	}

	s.cache.Set(key, []byte(strconv.FormatInt(count, 10)), ttl)
	return count, nil
}

func (s *MemoryStore) Close() {
	s.cache.Stop()
}
