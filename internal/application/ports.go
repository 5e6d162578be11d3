package application

import (
	"context"
	"time"

	"fxrates-adapter/internal/domain"
)

// Query describes a read against the currency table.
// Build it with Select and the chained filters; the zero Limit means no limit.
type Query struct {
	Columns []string
	Filter  *Filter
	Limit   int
}

// Filter restricts Column to one of Values. A single value is an equality match.
type Filter struct {
	Column string
	Values []string
}

func Select(columns ...string) Query {
	return Query{Columns: columns}
}

func (q Query) WhereEq(column, value string) Query {
	q.Filter = &Filter{Column: column, Values: []string{value}}
	return q
}

func (q Query) WhereIn(column string, values []string) Query {
	q.Filter = &Filter{Column: column, Values: append([]string(nil), values...)}
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// RateModel is the storage capability the provider reads rates through.
type RateModel interface {
	// All returns every matching row.
	All(ctx context.Context, q Query) ([]domain.Row, error)
	// First returns the first matching row; ok is false when nothing matched.
	First(ctx context.Context, q Query) (row domain.Row, ok bool, err error)
}

// ModelLoader yields the storage accessor. The provider invokes it lazily
// and memoizes the result.
type ModelLoader func(ctx context.Context) (RateModel, error)

// CacheBackend is a byte store with TTLs. Every method may fail; callers degrade.
type CacheBackend interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// GetOrSet returns the cached value or stores and returns factory's result.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, error)
}

// CacheConnector establishes the cache backend. It runs at most once per
// successful setup.
type CacheConnector func(ctx context.Context) (CacheBackend, error)

// Observer receives outcome counters. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveConversion(outcome string)
	ObserveCache(result string)
}

type NopObserver struct{}

func (NopObserver) ObserveConversion(string) {}
func (NopObserver) ObserveCache(string)      {}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }
