package usecase

import (
	"context"
	"fmt"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	domsvc "StockSeq/internal/domain/service"
	applogger "StockSeq/pkg/logger"
)

// Acquirer downloads historical data for each symbol until the daily quota runs out.
type Acquirer struct {
	fetcher     domsvc.MarketDataFetcher
	ledger      domsvc.QuotaLedger
	metrics     domrepo.Metrics
	l           *applogger.Logger
	historyDays int
	extras      []string
	now         func() time.Time
}

func NewAcquirer(
	fetcher domsvc.MarketDataFetcher,
	ledger domsvc.QuotaLedger,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	historyDays int,
	extras []string,
) *Acquirer {
	return &Acquirer{
		fetcher:     fetcher,
		ledger:      ledger,
		metrics:     metrics,
		l:           l,
		historyDays: historyDays,
		extras:      extras,
		now:         time.Now,
	}
}

// Run fetches every symbol in order. Once the quota refuses a request the
// remaining symbols are reported as rate_limited without being attempted.
func (a *Acquirer) Run(ctx context.Context, symbols []string) (*models.BatchReport, error) {
	b := newBatch(models.PhaseAcquire, symbols, a.metrics, a.l, a.now)

	stats, err := a.ledger.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read quota: %w", err)
	}
	b.l.Info("quota before acquisition",
		applogger.Int("used_today", stats.Today),
		applogger.Int("remaining_today", stats.RemainingToday),
	)
	if stats.RemainingToday == 0 {
		a.skipAll(b, symbols, stats.Date)
		return b.finish(), nil
	}

	for i, sym := range symbols {
		if _, err := a.fetcher.FetchHistorical(ctx, sym, a.historyDays); err != nil {
			b.fail(sym, err)
			if errs.KindOf(err) == errs.KindRateLimited {
				a.skipAll(b, symbols[i+1:], stats.Date)
				break
			}
			continue
		}
		if limited := a.fetchExtras(ctx, b, sym); limited {
			b.ok(sym)
			a.skipAll(b, symbols[i+1:], stats.Date)
			break
		}
		b.ok(sym)
	}
	return b.finish(), nil
}

// fetchExtras is best effort; it reports whether the quota ran out.
func (a *Acquirer) fetchExtras(ctx context.Context, b *batch, sym string) bool {
	for _, kind := range a.extras {
		var err error
		switch kind {
		case models.KindQuote:
			_, err = a.fetcher.FetchQuote(ctx, sym)
		case models.KindCompany:
			_, err = a.fetcher.FetchCompany(ctx, sym)
		default:
			err = errs.Newf(errs.KindConfiguration, sym, "unknown dataset kind %q", kind)
		}
		if err == nil {
			continue
		}
		b.l.Warn("supplementary fetch failed",
			applogger.Symbol(sym),
			applogger.String("kind", kind),
			applogger.Error(err),
		)
		if errs.KindOf(err) == errs.KindRateLimited {
			return true
		}
	}
	return false
}

func (a *Acquirer) skipAll(b *batch, symbols []string, date string) {
	for _, sym := range symbols {
		b.fail(sym, errs.Newf(errs.KindRateLimited, sym, "daily request quota reached for %s, not attempted", date))
	}
}
