package memcache

import (
	"context"
	"sync"
	"time"

	"fxrates-adapter/internal/application"
)

type entry struct {
	val     []byte
	expires time.Time
}

// Cache is an in-process CacheBackend with per-entry expiry.
type Cache struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

var _ application.CacheBackend = (*Cache)(nil)

func New() *Cache {
	return &Cache{data: map[string]entry{}, now: time.Now}
}

// Connector always succeeds; it hands out c.
func (c *Cache) Connector() application.CacheConnector {
	return func(context.Context) (application.CacheBackend, error) { return c, nil }
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.expires.Equal(e.expires) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{val: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

// GetOrSet runs factory without holding the lock, so factory may use the cache.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := c.Get(ctx, key); ok {
		return v, nil
	}
	v, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return v, c.Set(ctx, key, v, ttl)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
