package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CacheState int

const (
	CacheUnconfigured CacheState = iota
	CacheSettingUp
	CacheEnabled
	CacheDisabled
)

func (s CacheState) String() string {
	switch s {
	case CacheSettingUp:
		return "setting_up"
	case CacheEnabled:
		return "enabled"
	case CacheDisabled:
		return "disabled"
	default:
		return "unconfigured"
	}
}

// DefaultSetupTimeout bounds one shared cache connection attempt.
const DefaultSetupTimeout = 5 * time.Second

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration `validate:"gte=0"`
	Prefix  string
}

// RateCache is a best-effort read-through cache in front of storage reads.
// Backend failures are logged and treated as misses.
type RateCache struct {
	cfg     CacheConfig
	connect CacheConnector
	log     *zap.Logger
	obs     Observer

	mu      sync.Mutex
	state   CacheState
	backend CacheBackend
	group   singleflight.Group
}

func NewRateCache(cfg CacheConfig, connect CacheConnector, log *zap.Logger, obs Observer) *RateCache {
	if log == nil {
		log = zap.NewNop()
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &RateCache{cfg: cfg, connect: connect, log: log.With(zap.String("component", "rate_cache")), obs: obs}
}

func (c *RateCache) configured() bool { return c != nil && c.cfg.Enabled && c.connect != nil }

func (c *RateCache) State() CacheState {
	if c == nil {
		return CacheUnconfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EnsureSetup connects the backend once. Concurrent callers share the
// in-flight attempt. A failed attempt leaves the cache disabled.
func (c *RateCache) EnsureSetup(ctx context.Context) {
	if !c.configured() {
		return
	}
	switch c.State() {
	case CacheEnabled, CacheDisabled:
		return
	}
	c.setup(ctx, false)
}

// Setup runs the connection again, also from the disabled state.
func (c *RateCache) Setup(ctx context.Context) {
	if !c.configured() {
		return
	}
	c.setup(ctx, true)
}

// setup runs detached from the caller's cancellation; a cancelled caller only
// stops waiting.
func (c *RateCache) setup(ctx context.Context, force bool) {
	connectCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("setup", func() (any, error) {
		c.mu.Lock()
		if c.state == CacheEnabled || (c.state == CacheDisabled && !force) {
			c.mu.Unlock()
			return nil, nil
		}
		c.state = CacheSettingUp
		c.mu.Unlock()

		cctx, cancel := context.WithTimeout(connectCtx, DefaultSetupTimeout)
		defer cancel()
		backend, err := c.connect(cctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil || backend == nil {
			c.state, c.backend = CacheDisabled, nil
			c.log.Warn("rate_cache.setup_failed", zap.Error(err))
			return nil, nil
		}
		c.state, c.backend = CacheEnabled, backend
		c.log.Info("rate_cache.enabled", zap.String("prefix", c.cfg.Prefix), zap.Duration("ttl", c.cfg.TTL))
		return nil, nil
	})
	select {
	case <-ctx.Done():
	case <-ch:
	}
}

func (c *RateCache) ready(ctx context.Context) (CacheBackend, bool) {
	if !c.configured() {
		return nil, false
	}
	c.EnsureSetup(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CacheEnabled {
		return nil, false
	}
	return c.backend, true
}

// Key prefixes a logical key.
func (c *RateCache) Key(logical string) string {
	if c == nil || c.cfg.Prefix == "" {
		return logical
	}
	return c.cfg.Prefix + ":" + logical
}

// Invalidate removes the entry for a logical key.
func (c *RateCache) Invalidate(ctx context.Context, logical string) {
	backend, ok := c.ready(ctx)
	if !ok {
		return
	}
	key := c.Key(logical)
	if err := backend.Delete(ctx, key); err != nil {
		c.obs.ObserveCache("error")
		c.log.Warn("rate_cache.delete_failed", zap.String("key", key), zap.Error(err))
	}
}

// getOrFetch returns the cached value for logical or calls fetch and stores
// its result. Without a usable cache it always calls fetch.
func getOrFetch[T any](ctx context.Context, c *RateCache, logical string, fetch func(ctx context.Context) (T, error)) (T, error) {
	backend, ok := c.ready(ctx)
	if !ok {
		return fetch(ctx)
	}
	key := c.Key(logical)

	var (
		fetched  T
		didFetch bool
		fetchErr error
	)
	raw, err := backend.GetOrSet(ctx, key, c.cfg.TTL, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			fetchErr = err
			return nil, err
		}
		fetched, didFetch = v, true
		return json.Marshal(v)
	})
	switch {
	case fetchErr != nil:
		var zero T
		return zero, fetchErr
	case didFetch:
		c.obs.ObserveCache("miss")
		if err != nil {
			c.log.Warn("rate_cache.set_failed", zap.String("key", key), zap.Error(err))
		}
		return fetched, nil
	case err != nil:
		c.obs.ObserveCache("error")
		c.log.Warn("rate_cache.get_failed", zap.String("key", key), zap.Error(err))
		return fetch(ctx)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		c.obs.ObserveCache("error")
		c.log.Warn("rate_cache.decode_failed", zap.String("key", key), zap.Error(err))
		if derr := backend.Delete(ctx, key); derr != nil {
			c.log.Warn("rate_cache.delete_failed", zap.String("key", key), zap.Error(derr))
		}
		return fetch(ctx)
	}
	c.obs.ObserveCache("hit")
	return out, nil
}
