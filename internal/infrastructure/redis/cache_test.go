package redisstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxrates-adapter/internal/application"
	redisstore "fxrates-adapter/internal/infrastructure/redis"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*redisstore.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client), mr
}

func TestCache_GetSetDelete(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "currency_rates:all")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "currency_rates:all", []byte(`[]`), time.Minute))
	val, ok, err := c.Get(ctx, "currency_rates:all")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[]`), val)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "currency_rates:all")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))
	require.False(t, mr.Exists("k"))
}

func TestCache_GetOrSet(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	calls := 0
	factory := func(context.Context) ([]byte, error) {
		calls++
		return []byte("0.85"), nil
	}

	for i := 0; i < 2; i++ {
		val, err := c.GetOrSet(ctx, "currency_rates:rate:USD:EUR", time.Hour, factory)
		require.NoError(t, err)
		require.Equal(t, []byte("0.85"), val)
	}
	require.Equal(t, 1, calls)

	_, err := c.GetOrSet(ctx, "other", time.Hour, func(context.Context) ([]byte, error) {
		return nil, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	_, ok, _ := c.Get(ctx, "other")
	require.False(t, ok)
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestConnector(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	backend, err := redisstore.Connector(redisstore.Options{Addr: mr.Addr()})(context.Background())
	require.NoError(t, err)
	require.NotNil(t, backend)

	_, err = redisstore.Connector(redisstore.Options{Addr: "127.0.0.1:1"})(context.Background())
	require.Error(t, err)
}

func TestConnector_WithProvider(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	model := staticModel{}
	p, err := application.NewDatabaseProvider(
		application.ProviderConfig{
			Loader: func(context.Context) (application.RateModel, error) { return model, nil },
			Cache:  application.CacheConfig{Enabled: true, TTL: time.Hour},
		},
		application.WithCache(redisstore.Connector(redisstore.Options{Addr: mr.Addr()})),
	)
	require.NoError(t, err)

	rate, ok := p.GetConvertRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	require.Equal(t, 0.85, rate)
	require.Equal(t, application.CacheEnabled, p.CacheState())
	require.True(t, mr.Exists("currency_rates:codes:EUR"))
	require.True(t, mr.Exists("currency_rates:rate:USD:EUR"))
	ttl := mr.TTL("currency_rates:codes:EUR")
	require.Equal(t, time.Hour, ttl)
}
