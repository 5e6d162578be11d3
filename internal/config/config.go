package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port    string
	Storage string
	// Postgres
	DatabaseURL   string
	RunMigrations bool
	// Currency table
	Table           string
	BaseCurrency    string
	ColumnCode      string
	ColumnRate      string
	ColumnCreatedAt string
	ColumnUpdatedAt string
	// Rates seeded into storage on start, e.g. "EUR:0.85,GBP:0.73"
	SeedRates string
	// Cache
	CacheEnabled bool
	CacheStore   string
	CacheTTL     time.Duration
	CachePrefix  string
	// Redis (cache backend)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Worker
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// lookupEnv is getEnv that keeps an explicitly empty value, so optional
// columns can be switched off with CURRENCY_COLUMN_UPDATED_AT=.
func lookupEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func boolDef(s string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return b
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:             getEnv("ENV", "local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", DefaultHTTPPort),
		Storage:         getEnv("STORAGE", "pg"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RunMigrations:   boolDef(getEnv("RUN_MIGRATIONS", "false"), false),
		Table:           getEnv("CURRENCY_TABLE", DefaultTable),
		BaseCurrency:    strings.ToUpper(getEnv("CURRENCY_BASE", DefaultBaseCurrency)),
		ColumnCode:      getEnv("CURRENCY_COLUMN_CODE", "code"),
		ColumnRate:      getEnv("CURRENCY_COLUMN_RATE", "exchange_rate"),
		ColumnCreatedAt: lookupEnv("CURRENCY_COLUMN_CREATED_AT", "created_at"),
		ColumnUpdatedAt: lookupEnv("CURRENCY_COLUMN_UPDATED_AT", "updated_at"),
		SeedRates:       getEnv("SEED_RATES", ""),
		CacheEnabled:    boolDef(getEnv("CACHE_ENABLED", "false"), false),
		CacheStore:      getEnv("CACHE_STORE", "redis"),
		CacheTTL:        time.Duration(atoiDef(getEnv("CACHE_TTL_SECONDS", "3600"), 3600)) * time.Second,
		CachePrefix:     getEnv("CACHE_PREFIX", DefaultCachePrefix),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         atoiDef(getEnv("REDIS_DB", "0"), 0),
		RefreshInterval: time.Duration(atoiDef(getEnv("REFRESH_INTERVAL_MS", "60000"), 60000)) * time.Millisecond,
		RequestTimeout:  time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "3000"), 3000)) * time.Millisecond,
	}
}
