package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultTable           = "currencies"
	DefaultBaseCurrency    = "USD"
	DefaultCachePrefix     = "currency_rates"
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
)
