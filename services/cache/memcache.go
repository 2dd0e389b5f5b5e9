package cache

import (
	"errors"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
)

const memcacheSource = "memcache"

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, scrapeerrors.NewCache(memcacheSource, "get "+key, err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirationSeconds(expiration),
	})
	if err != nil {
		return scrapeerrors.NewCache(memcacheSource, "set "+key, err)
	}
	return nil
}

// expirationSeconds converts expiration to memcache's whole seconds. A
// positive duration below one second becomes one second, since zero means
// the item never expires.
func expirationSeconds(expiration time.Duration) int32 {
	if expiration <= 0 {
		return 0
	}
	return int32(math.Ceil(expiration.Seconds()))
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(key)
	if err == nil || errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return scrapeerrors.NewCache(memcacheSource, "delete "+key, err)
}

// Ping checks that the memcache server is reachable
func (m *MemcacheService) Ping() error {
	if err := m.client.Ping(); err != nil {
		return scrapeerrors.NewCache(memcacheSource, "ping", err)
	}
	return nil
}
