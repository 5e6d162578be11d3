package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/infrastructure/logx"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores rate cache entries in Redis. Keys arrive already prefixed.
type Cache struct {
	Client *redis.Client
}

var _ application.CacheBackend = (*Cache)(nil)

func New(client *redis.Client) *Cache {
	return &Cache{Client: client}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value; a zero ttl keeps the entry until it is deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// GetOrSet is not atomic across processes: two concurrent misses both run
// factory and the last write wins.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	val, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return val, nil
	}
	val, err = factory(ctx)
	if err != nil {
		return nil, err
	}
	return val, c.Set(ctx, key, val, ttl)
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connector returns a cache connector that dials Redis and verifies it with PING.
func Connector(opts Options) application.CacheConnector {
	return func(ctx context.Context) (application.CacheBackend, error) {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
		}
		logx.WithFields(ctx).Info("redis.connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
		return New(client), nil
	}
}
