package pg

import (
	"context"
	"fmt"
	"time"

	"fxrates-adapter/internal/config"
	"fxrates-adapter/internal/infrastructure/logx"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct{ Pool *pgxpool.Pool }

// Connect opens the pool and waits for the server to accept connections.
func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns, cfg.MinConns = config.DefaultPGMaxConns, config.DefaultPGMinConns
	cfg.MaxConnIdleTime = 2 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := &DB{Pool: pool}
	if err := retryPing(ctx, db.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func (d *DB) Close()                         { d.Pool.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }

func retryPing(ctx context.Context, ping func(context.Context) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 15 * time.Second

	attempt := 0
	op := func() error {
		attempt++
		err := ping(ctx)
		if err != nil {
			logx.L().Warn("sql.ping_failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(exp, ctx))
}
