package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fxrates-adapter/internal/domain"
)

var (
	ErrRepo  = errors.New("repo error")
	ErrCache = errors.New("cache down")
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// fakeModel serves rows from memory and counts the calls made against it.
type fakeModel struct {
	mu      sync.Mutex
	rows    []domain.Row
	err     error
	calls   int
	queries []Query
}

func newFakeModel(rows ...domain.Row) *fakeModel { return &fakeModel{rows: rows} }

func (f *fakeModel) match(q Query) []domain.Row {
	var out []domain.Row
	for _, r := range f.rows {
		if q.Filter != nil {
			v, _ := r[q.Filter.Column].(string)
			found := false
			for _, want := range q.Filter.Values {
				if v == want {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

func (f *fakeModel) All(_ context.Context, q Query) ([]domain.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.match(q), nil
}

func (f *fakeModel) First(_ context.Context, q Query) (domain.Row, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, false, f.err
	}
	rows := f.match(q.WithLimit(1))
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeModel) loader() ModelLoader {
	return func(context.Context) (RateModel, error) { return f, nil }
}

func row(code string, rate any) domain.Row {
	return domain.Row{"code": code, "exchange_rate": rate}
}

// fakeBackend is an in-memory CacheBackend that can be made to fail.
type fakeBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	deleted []string
}

func newFakeBackend() *fakeBackend { return &fakeBackend{data: map[string][]byte{}} }

func (b *fakeBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, false, b.getErr
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *fakeBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.setErr != nil {
		return b.setErr
	}
	b.data[key] = value
	return nil
}

func (b *fakeBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, key)
	delete(b.data, key)
	return nil
}

func (b *fakeBackend) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	v, ok, err := b.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}
	v, err = factory(ctx)
	if err != nil {
		return nil, err
	}
	return v, b.Set(ctx, key, v, ttl)
}

func (b *fakeBackend) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok
}

// countingConnector returns backend (or err) and counts connection attempts.
type countingConnector struct {
	backend CacheBackend
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (c *countingConnector) connect(ctx context.Context) (CacheBackend, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.backend, nil
}

type recordingObserver struct {
	mu          sync.Mutex
	conversions map[string]int
	cache       map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{conversions: map[string]int{}, cache: map[string]int{}}
}

func (o *recordingObserver) ObserveConversion(outcome string) {
	o.mu.Lock()
	o.conversions[outcome]++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveCache(result string) {
	o.mu.Lock()
	o.cache[result]++
	o.mu.Unlock()
}

func (o *recordingObserver) cacheCount(result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache[result]
}

func boolPtr(b bool) *bool { return &b }
