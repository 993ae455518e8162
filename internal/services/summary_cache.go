package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TextStore is the cache backend surface. *database.Cache implements it
// over Redis; MemoryTextStore backs tests and redis-less deployments.
type TextStore interface {
	GetText(ctx context.Context, key string) (string, error)
	SetText(ctx context.Context, key, value string, expiration time.Duration) error
}

// SummaryCache is a TTL cache with at-most-one concurrent computation
// per key. Concurrent callers for the same key block until the first
// computation finishes, then read the cached value.
type SummaryCache struct {
	store  TextStore
	ttl    time.Duration
	logger *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSummaryCache(store TextStore, ttl time.Duration, logger *logrus.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SummaryCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// GetOrCompute returns the cached value for key, computing and storing
// it on a miss. The second return value reports a cache hit.
func (c *SummaryCache) GetOrCompute(ctx context.Context, key string, compute func() (string, error)) (string, bool, error) {
	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if value, err := c.store.GetText(ctx, key); err == nil && value != "" {
		return value, true, nil
	}

	value, err := compute()
	if err != nil {
		return "", false, err
	}

	if err := c.store.SetText(ctx, key, value, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to cache computed value")
	}
	return value, false, nil
}

func (c *SummaryCache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

// MemoryTextStore is an in-process TextStore with per-entry expiry.
type MemoryTextStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryTextStore() *MemoryTextStore {
	return &MemoryTextStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryTextStore) GetText(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", errMemoryMiss
	}
	return entry.value, nil
}

func (s *MemoryTextStore) SetText(_ context.Context, key, value string, expiration time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(expiration),
	}
	s.mu.Unlock()
	return nil
}

type memoryMissError struct{}

func (memoryMissError) Error() string { return "cache miss" }

var errMemoryMiss = memoryMissError{}
