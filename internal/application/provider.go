package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"fxrates-adapter/internal/domain"

	"go.uber.org/zap"
)

// ProviderName identifies the database-backed provider in the registry.
const ProviderName = "database"

const logicalAll = "all"

// ExchangeProvider is what the registry exposes to callers.
type ExchangeProvider interface {
	Name() string
	Convert(ctx context.Context, params ConvertParams) domain.ConversionResult
	LatestRates(ctx context.Context, params LatestRatesParams) domain.ExchangeRatesResult
	GetConvertRate(ctx context.Context, from, to string) (float64, bool)
	HealthCheck(ctx context.Context) domain.HealthCheckResult
}

type ConvertParams struct {
	Amount float64
	From   string
	To     string
}

type LatestRatesParams struct {
	Base    string
	Symbols []string
	// Cache nil or true reads through the cache; false forces a fresh read.
	Cache *bool
}

// DatabaseProvider converts currencies using base-relative rates stored in a table.
type DatabaseProvider struct {
	base     string
	cols     domain.Columns
	accessor RecordAccessor
	resolver Resolver
	model    *lazy[RateModel]
	cache    *RateCache

	connect CacheConnector
	clock   Clock
	log     *zap.Logger
	obs     Observer
}

var _ ExchangeProvider = (*DatabaseProvider)(nil)

type Option func(*DatabaseProvider)

func WithClock(c Clock) Option { return func(p *DatabaseProvider) { p.clock = c } }
func WithLogger(l *zap.Logger) Option { return func(p *DatabaseProvider) { p.log = l } }
func WithObserver(o Observer) Option { return func(p *DatabaseProvider) { p.obs = o } }
func WithCache(c CacheConnector) Option { return func(p *DatabaseProvider) { p.connect = c } }

func NewDatabaseProvider(cfg ProviderConfig, opts ...Option) (*DatabaseProvider, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &DatabaseProvider{
		base:     cfg.Base,
		cols:     cfg.Columns,
		accessor: NewRecordAccessor(cfg.Columns),
		resolver: NewResolver(cfg.Base),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if p.obs == nil {
		p.obs = NopObserver{}
	}
	p.log = p.log.With(zap.String("provider", ProviderName), zap.String("base", p.base))
	loader := cfg.Loader
	p.model = newLazy(func(ctx context.Context) (RateModel, error) {
		m, err := loader(ctx)
		if err != nil {
			return nil, domain.WrapError(domain.KindStorage, fmt.Errorf("load currency model: %w", err))
		}
		if m == nil {
			return nil, domain.NewError(domain.KindModelNotConfigured, "currency model loader returned no model")
		}
		p.log.Info("provider.model_resolved")
		return m, nil
	})
	p.cache = NewRateCache(cfg.Cache, p.connect, p.log, p.obs)
	return p, nil
}

func (p *DatabaseProvider) Name() string { return ProviderName }

func (p *DatabaseProvider) Base() string { return p.base }

func (p *DatabaseProvider) CacheState() CacheState { return p.cache.State() }

// SetupCache retries the cache connection, also after an earlier failure.
func (p *DatabaseProvider) SetupCache(ctx context.Context) { p.cache.Setup(ctx) }

// Reload drops the resolved model; the next call runs the loader again.
func (p *DatabaseProvider) Reload() { p.model.Invalidate() }

func (p *DatabaseProvider) Convert(ctx context.Context, params ConvertParams) domain.ConversionResult {
	now := p.clock.Now()
	from, to := domain.NormalizeCode(params.From), domain.NormalizeCode(params.To)
	res := domain.ConversionResult{
		Query: domain.ConversionQuery{From: from, To: to, Amount: params.Amount},
		Info:  domain.ConversionInfo{Timestamp: now.Unix()},
		Date:  domain.FormatDate(now),
	}

	if !(params.Amount > 0) || math.IsInf(params.Amount, 0) {
		// Non-finite values cannot be encoded back into the envelope.
		if math.IsInf(params.Amount, 0) || math.IsNaN(params.Amount) {
			res.Query.Amount = 0
		}
		return p.convertFailed(res, domain.NewError(domain.KindInvalidInput, "Amount must be a positive number"))
	}
	if from == "" || to == "" {
		return p.convertFailed(res, domain.NewError(domain.KindInvalidInput, "Both 'from' and 'to' currencies are required"))
	}

	if from == to {
		return p.convertSucceeded(res, 1.0, now)
	}

	rate, updated, err := p.resolve(ctx, from, to)
	if err != nil {
		return p.convertFailed(res, err)
	}
	ts := now
	if updated != nil {
		ts = *updated
	}
	return p.convertSucceeded(res, rate, ts)
}

func (p *DatabaseProvider) convertSucceeded(res domain.ConversionResult, rate float64, ts time.Time) domain.ConversionResult {
	result := res.Query.Amount * rate
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return p.convertFailed(res, domain.NewError(domain.KindInvalidInput,
			fmt.Sprintf("Conversion result out of range for amount %g", res.Query.Amount)))
	}
	res.Success = true
	res.Info = domain.ConversionInfo{Timestamp: ts.Unix(), Rate: &rate}
	res.Date = domain.FormatDate(ts)
	res.Result = &result
	p.obs.ObserveConversion("success")
	return res
}

func (p *DatabaseProvider) convertFailed(res domain.ConversionResult, err error) domain.ConversionResult {
	res.Success = false
	res.Error = domain.ErrorInfoFrom(err)
	p.obs.ObserveConversion(res.Error.Type)
	p.logFailure("provider.convert_failed", err,
		zap.String("from", res.Query.From),
		zap.String("to", res.Query.To),
	)
	return res
}

func (p *DatabaseProvider) LatestRates(ctx context.Context, params LatestRatesParams) domain.ExchangeRatesResult {
	now := p.clock.Now()
	base := domain.NormalizeCode(params.Base)
	if base == "" {
		base = p.base
	}
	symbols := normalizeCodes(params.Symbols)
	useCache := params.Cache == nil || *params.Cache

	res := domain.ExchangeRatesResult{
		Timestamp: now.Unix(),
		Date:      domain.FormatDate(now),
		Base:      base,
		Rates:     map[string]float64{},
	}

	var (
		records []domain.Rate
		err     error
	)
	if len(symbols) > 0 {
		codes := p.resolver.Codes(append(symbols, base)...)
		records, err = p.fetchCodes(ctx, codes, useCache)
	} else {
		records, err = p.fetchAll(ctx, useCache)
	}
	if err != nil {
		res.Error = domain.ErrorInfoFrom(err)
		p.logFailure("provider.latest_rates_failed", err)
		return res
	}

	idx := Index(records)
	wanted := symbols
	if len(wanted) == 0 {
		wanted = make([]string, 0, len(records))
		for _, r := range records {
			wanted = append(wanted, r.Code)
		}
	}

	var latest *time.Time
	for _, code := range wanted {
		rate, err := p.resolver.Rate(base, code, idx)
		if err != nil {
			p.log.Debug("provider.rate_skipped", zap.String("code", code), zap.Error(err))
			continue
		}
		res.Rates[code] = rate
		if rec, ok := idx[code]; ok {
			latest = later(latest, rec.UpdatedAt)
		}
	}

	if len(res.Rates) == 0 {
		var info string
		if len(symbols) > 0 {
			info = fmt.Sprintf("No exchange rates found for currencies: %s", strings.Join(symbols, ", "))
		} else {
			info = "No exchange rates found in database"
		}
		res.Error = domain.ErrorInfoFrom(domain.NewError(domain.KindRateNotFound, info))
		return res
	}

	res.Success = true
	if latest != nil {
		res.Timestamp = latest.Unix()
		res.Date = domain.FormatDate(*latest)
	}
	return res
}

// GetConvertRate is the best-effort variant: any failure yields ok=false.
func (p *DatabaseProvider) GetConvertRate(ctx context.Context, from, to string) (float64, bool) {
	from, to = domain.NormalizeCode(from), domain.NormalizeCode(to)
	if from == "" || to == "" {
		return 0, false
	}
	if from == to {
		return 1.0, true
	}
	rate, err := getOrFetch(ctx, p.cache, "rate:"+from+":"+to, func(ctx context.Context) (float64, error) {
		rate, _, err := p.resolve(ctx, from, to)
		return rate, err
	})
	if err != nil {
		p.log.Debug("provider.convert_rate_unavailable", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return 0, false
	}
	return rate, true
}

func (p *DatabaseProvider) HealthCheck(ctx context.Context) domain.HealthCheckResult {
	start := time.Now()
	model, err := p.model.Get(ctx)
	if err == nil {
		_, _, err = model.First(ctx, Select(p.cols.Code).WithLimit(1))
	}
	latency := time.Since(start).Milliseconds()
	if err != nil {
		p.log.Warn("provider.health_check_failed", zap.Error(err))
		return domain.HealthCheckResult{Healthy: false, Latency: &latency, Error: err.Error()}
	}
	return domain.HealthCheckResult{Healthy: true, Latency: &latency}
}

// resolve fetches the records for from and to and computes the rate. The
// returned time is the latest update among the records involved.
func (p *DatabaseProvider) resolve(ctx context.Context, from, to string) (float64, *time.Time, error) {
	codes := p.resolver.Codes(from, to)
	var records []domain.Rate
	if len(codes) > 0 {
		var err error
		records, err = p.fetchCodes(ctx, codes, true)
		if err != nil {
			return 0, nil, err
		}
	}
	idx := Index(records)
	rate, err := p.resolver.Rate(from, to, idx)
	if err != nil {
		return 0, nil, err
	}
	var latest *time.Time
	for _, code := range codes {
		if rec, ok := idx[code]; ok {
			latest = later(latest, rec.UpdatedAt)
		}
	}
	return rate, latest, nil
}

func (p *DatabaseProvider) fetchCodes(ctx context.Context, codes []string, useCache bool) ([]domain.Rate, error) {
	read := func(ctx context.Context) ([]domain.Rate, error) {
		return p.read(ctx, Select(p.cols.Select()...).WhereIn(p.cols.Code, codes))
	}
	return p.cached(ctx, "codes:"+strings.Join(codes, ","), useCache, read)
}

func (p *DatabaseProvider) fetchAll(ctx context.Context, useCache bool) ([]domain.Rate, error) {
	read := func(ctx context.Context) ([]domain.Rate, error) {
		return p.read(ctx, Select(p.cols.Select()...))
	}
	return p.cached(ctx, logicalAll, useCache, read)
}

// cached reads through the cache. Without useCache the entry is dropped first,
// so the read goes to storage and refreshes it.
func (p *DatabaseProvider) cached(ctx context.Context, logical string, useCache bool, read func(ctx context.Context) ([]domain.Rate, error)) ([]domain.Rate, error) {
	if !useCache {
		p.cache.Invalidate(ctx, logical)
	}
	return getOrFetch(ctx, p.cache, logical, read)
}

func (p *DatabaseProvider) read(ctx context.Context, q Query) ([]domain.Rate, error) {
	model, err := p.model.Get(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := model.All(ctx, q)
	if err != nil {
		return nil, domain.WrapError(domain.KindStorage, err)
	}
	return p.accessor.ExtractAll(rows), nil
}

func (p *DatabaseProvider) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch domain.KindOf(err) {
	case domain.KindStorage, domain.KindModelNotConfigured:
		p.log.Warn(msg, fields...)
	default:
		p.log.Debug(msg, fields...)
	}
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = domain.NormalizeCode(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func later(cur, t *time.Time) *time.Time {
	if t == nil {
		return cur
	}
	if cur == nil || t.After(*cur) {
		return t
	}
	return cur
}
