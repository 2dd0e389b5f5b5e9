package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	scrapeerrors "sjsage522/jobofferworker/pkg/errors"
)

// Ensure both implementations satisfy CacheService
var (
	_ CacheService = (*MemcacheService)(nil)
	_ CacheService = (*MemoryService)(nil)
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	err := mc.Set("joboffers_test_key", []byte("test_value"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("joboffers_test_key")
	assert.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	err = mc.Delete("joboffers_test_key")
	assert.NoError(t, err)

	_, err = mc.Get("joboffers_test_key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryService(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := NewMemoryService()
	mem.now = func() time.Time { return now }

	_, err := mem.Get("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, mem.Set("blocked", []byte("300"), 5*time.Minute))
	value, err := mem.Get("blocked")
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	now = now.Add(5 * time.Minute)
	_, err = mem.Get("blocked")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, mem.Set("forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, err = mem.Get("forever")
	assert.NoError(t, err)

	assert.NoError(t, mem.Delete("forever"))
	_, err = mem.Get("forever")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemcacheServiceUnreachable(t *testing.T) {
	mc := NewMemcacheService("127.0.0.1:1")

	_, err := mc.Get("joboffers_rate_limited")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	errType, ok := scrapeerrors.TypeOf(err)
	assert.True(t, ok)
	assert.Equal(t, scrapeerrors.ErrorTypeCache, errType)
}

func TestExpirationSeconds(t *testing.T) {
	assert.Equal(t, int32(0), expirationSeconds(0))
	assert.Equal(t, int32(0), expirationSeconds(-time.Second))
	assert.Equal(t, int32(1), expirationSeconds(200*time.Millisecond))
	assert.Equal(t, int32(2), expirationSeconds(1500*time.Millisecond))
	assert.Equal(t, int32(300), expirationSeconds(5*time.Minute))
}
