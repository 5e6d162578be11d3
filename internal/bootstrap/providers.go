package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/config"
	"fxrates-adapter/internal/domain"
	httpserver "fxrates-adapter/internal/infrastructure/http"
	"fxrates-adapter/internal/infrastructure/logx"
	"fxrates-adapter/internal/infrastructure/memcache"
	"fxrates-adapter/internal/infrastructure/memstore"
	"fxrates-adapter/internal/infrastructure/metrics"
	"fxrates-adapter/internal/infrastructure/orm"
	"fxrates-adapter/internal/infrastructure/pg"
	redisstore "fxrates-adapter/internal/infrastructure/redis"
	"fxrates-adapter/internal/infrastructure/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	ErrMissingDBURL   = errors.New("DATABASE_URL is required for STORAGE=pg|gorm")
	ErrUnknownStorage = errors.New("unknown STORAGE")
	ErrUnknownCache   = errors.New("unknown CACHE_STORE")
)

// Storage is the resolved currency table: the loader handed to the provider
// and an optional readiness probe.
type Storage struct {
	Loader application.ModelLoader
	Ping   func(ctx context.Context) error
}

type Telemetry struct {
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// seeder is implemented by every RateModel that accepts writes.
type seeder interface {
	Upsert(ctx context.Context, code string, rate float64, at time.Time) error
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideTelemetry() Telemetry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return Telemetry{Metrics: metrics.NewMetrics(reg), Registry: reg}
}

func columns(cfg config.Config) domain.Columns {
	return domain.Columns{
		Code:      cfg.ColumnCode,
		Rate:      cfg.ColumnRate,
		CreatedAt: cfg.ColumnCreatedAt,
		UpdatedAt: cfg.ColumnUpdatedAt,
	}
}

func ProvideStorage(ctx context.Context, log *zap.Logger, cfg config.Config) (Storage, func(), error) {
	cols := columns(cfg)
	var (
		model   application.RateModel
		ping    func(ctx context.Context) error
		cleanup = func() {}
	)
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, func() {}, err
		}
		if cfg.RunMigrations {
			if err := pg.RunMigrations(ctx, db); err != nil {
				db.Close()
				return Storage{}, func() {}, err
			}
		}
		model, ping = pg.NewRateModel(db, cfg.Table, cols), db.Ping
		cleanup = func() {
			log.Info("closing pg")
			db.Close()
		}
	case "gorm":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := orm.Open(cfg.DatabaseURL)
		if err != nil {
			return Storage{}, func() {}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return Storage{}, func() {}, err
		}
		if cfg.RunMigrations {
			if err := orm.AutoMigrate(db); err != nil {
				_ = sqlDB.Close()
				return Storage{}, func() {}, err
			}
		}
		model, ping = orm.NewRateModel(db, cfg.Table, cols), sqlDB.PingContext
		cleanup = func() {
			log.Info("closing gorm")
			_ = sqlDB.Close()
		}
	case "memory":
		model = memstore.New(cols)
	default:
		return Storage{}, func() {}, fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.Storage)
	}

	if err := seed(ctx, log, model, cfg.SeedRates); err != nil {
		cleanup()
		return Storage{}, func() {}, err
	}
	log.Info("storage_ready", zap.String("storage", cfg.Storage), zap.String("table", cfg.Table))
	return Storage{
		Loader: func(context.Context) (application.RateModel, error) { return model, nil },
		Ping:   ping,
	}, cleanup, nil
}

func seed(ctx context.Context, log *zap.Logger, model application.RateModel, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	rates, err := memstore.ParseSeed(raw)
	if err != nil {
		return err
	}
	s, ok := model.(seeder)
	if !ok {
		return errors.New("storage does not accept seed rates")
	}
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	now := time.Now().UTC()
	for _, code := range codes {
		if err := s.Upsert(ctx, code, rates[code], now); err != nil {
			return fmt.Errorf("seed %s: %w", code, err)
		}
	}
	log.Info("storage_seeded", zap.Strings("codes", codes))
	return nil
}

// ProvideCacheConnector returns nil when caching is off.
func ProvideCacheConnector(cfg config.Config) (application.CacheConnector, error) {
	if !cfg.CacheEnabled {
		return nil, nil
	}
	switch cfg.CacheStore {
	case "redis":
		return redisstore.Connector(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case "memory":
		return memcache.New().Connector(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCache, cfg.CacheStore)
	}
}

func ProvideDatabaseProvider(cfg config.Config, st Storage, connect application.CacheConnector, tel Telemetry, log *zap.Logger) (*application.DatabaseProvider, error) {
	opts := []application.Option{
		application.WithLogger(log),
		application.WithObserver(tel.Metrics),
	}
	if connect != nil {
		opts = append(opts, application.WithCache(connect))
	}
	return application.NewDatabaseProvider(application.ProviderConfig{
		Base:    cfg.BaseCurrency,
		Columns: columns(cfg),
		Cache: application.CacheConfig{
			Enabled: cfg.CacheEnabled,
			TTL:     cfg.CacheTTL,
			Prefix:  cfg.CachePrefix,
		},
		Loader: st.Loader,
	}, opts...)
}

func ProvideRegistry(p *application.DatabaseProvider) (*application.Registry, error) {
	reg := application.NewRegistry()
	if err := reg.Register(p); err != nil {
		return nil, err
	}
	return reg, nil
}

func ProvideServer(reg *application.Registry, cfg config.Config, tel Telemetry, st Storage) *httpserver.Server {
	srv := httpserver.NewServer(reg, tel.Metrics)
	srv.SetRequestTimeout(cfg.RequestTimeout)
	if st.Ping != nil {
		srv.SetReadyCheck(st.Ping)
	}
	return srv
}

func ProvideHandler(srv *httpserver.Server, tel Telemetry) http.Handler {
	return httpserver.NewRouter(srv, tel.Registry)
}

func ProvideWorker(reg *application.Registry, cfg config.Config, tel Telemetry, log *zap.Logger) application.Worker {
	return &worker.Refresher{
		Registry: reg,
		Every:    cfg.RefreshInterval,
		Log:      log,
		Obs:      tel.Metrics,
	}
}
