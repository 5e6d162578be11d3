package worker

import (
	"context"
	"time"

	"fxrates-adapter/internal/application"
	"go.uber.org/zap"
)

var _ application.Worker = (*Refresher)(nil)

// RefreshObserver counts refresh outcomes.
type RefreshObserver interface {
	ObserveRefresh(outcome string)
}

// cacheRetrier is implemented by providers whose cache can be set up again.
type cacheRetrier interface {
	CacheState() application.CacheState
	SetupCache(ctx context.Context)
}

// Refresher periodically re-reads the latest rates of every registered
// provider, bypassing and repopulating the rate cache.
//
// Only the all-rates entry is rewritten. Per-pair entries read by Convert and
// GetConvertRate keep their value until their own TTL expires, so conversions
// can lag a table change by up to one cache TTL.
type Refresher struct {
	Registry *application.Registry

	Every time.Duration
	Log   *zap.Logger
	Obs   RefreshObserver
}

func (w *Refresher) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		w.Every = time.Minute
	}

	t := time.NewTicker(w.Every)
	defer t.Stop()

	log.Info("refresher_started", zap.Duration("every", w.Every), zap.Strings("providers", w.Registry.Names()))
	w.RefreshOnce(ctx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("refresher_stopped")
			return
		case <-t.C:
			w.RefreshOnce(ctx, log)
		}
	}
}

// RefreshOnce runs a single refresh pass and reports how many providers failed.
func (w *Refresher) RefreshOnce(ctx context.Context, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}
	failed := 0
	for _, name := range w.Registry.Names() {
		p, err := w.Registry.Get(name)
		if err != nil {
			continue
		}
		if cr, ok := p.(cacheRetrier); ok && cr.CacheState() == application.CacheDisabled {
			cr.SetupCache(ctx)
		}
		res := p.LatestRates(ctx, application.LatestRatesParams{Cache: boolPtr(false)})
		if !res.Success {
			failed++
			w.observe("failure")
			info := ""
			if res.Error != nil {
				info = res.Error.Info
			}
			log.Warn("refresh_failed", zap.String("provider", name), zap.String("error", info))
			continue
		}
		w.observe("success")
		log.Info("refresh_done", zap.String("provider", name), zap.Int("rates", len(res.Rates)))
	}
	return failed
}

func (w *Refresher) observe(outcome string) {
	if w.Obs != nil {
		w.Obs.ObserveRefresh(outcome)
	}
}

func boolPtr(b bool) *bool { return &b }
