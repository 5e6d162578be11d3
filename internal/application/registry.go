package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fxrates-adapter/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Registry holds the configured providers by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ExchangeProvider
	def       string
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]ExchangeProvider{}}
}

// Register adds p under p.Name(). The first provider registered becomes the default.
func (r *Registry) Register(p ExchangeProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}
	r.providers[name] = p
	if r.def == "" {
		r.def = name
	}
	return nil
}

func (r *Registry) Get(name string) (ExchangeProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Default returns the first registered provider.
func (r *Registry) Default() (ExchangeProvider, error) {
	r.mu.RLock()
	name := r.def
	r.mu.RUnlock()
	return r.Get(name)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HealthCheckAll runs every provider's health check in parallel.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]domain.HealthCheckResult {
	names := r.Names()
	results := make([]domain.HealthCheckResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		p, err := r.Get(name)
		if err != nil {
			results[i] = domain.HealthCheckResult{Error: err.Error()}
			continue
		}
		i := i
		g.Go(func() error {
			results[i] = p.HealthCheck(gctx)
			return nil
		})
	}
	_ = g.Wait()
	out := make(map[string]domain.HealthCheckResult, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}
