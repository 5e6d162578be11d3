package application

import (
	"fmt"
	"time"

	"fxrates-adapter/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultBaseCurrency = "USD"
	DefaultCachePrefix  = "currency_rates"
	DefaultCacheTTL     = time.Hour
)

// ProviderConfig is immutable once the provider is built.
type ProviderConfig struct {
	Base    string `validate:"required,alpha,uppercase"`
	Columns domain.Columns
	Cache   CacheConfig
	Loader  ModelLoader
}

var validate = validator.New()

// withDefaults fills unset fields the way the configuration layer documents them.
func (c ProviderConfig) withDefaults() ProviderConfig {
	c.Base = domain.NormalizeCode(c.Base)
	if c.Base == "" {
		c.Base = DefaultBaseCurrency
	}
	if c.Columns == (domain.Columns{}) {
		c.Columns = domain.DefaultColumns()
	}
	if c.Cache.Enabled {
		if c.Cache.Prefix == "" {
			c.Cache.Prefix = DefaultCachePrefix
		}
		if c.Cache.TTL == 0 {
			c.Cache.TTL = DefaultCacheTTL
		}
	}
	return c
}

// Validate reports misconfiguration. A missing loader is fatal.
func (c ProviderConfig) Validate() error {
	if c.Loader == nil {
		return domain.NewError(domain.KindModelNotConfigured, "currency model loader is not configured")
	}
	if err := validate.Struct(c); err != nil {
		return domain.WrapError(domain.KindInvalidInput, fmt.Errorf("invalid provider config: %w", err))
	}
	return nil
}
