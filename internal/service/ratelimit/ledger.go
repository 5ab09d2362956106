package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	domsvc "StockSeq/internal/domain/service"
	applogger "StockSeq/pkg/logger"
	"StockSeq/pkg/util"
)

// Option configures Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(lg *applogger.Logger) Option {
	return func(l *Ledger) { l.l = lg }
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// Ledger enforces a per-UTC-day request ceiling against a persisted count.
// The monthly limit is reported in Stats but not enforced by Check.
type Ledger struct {
	store       domrepo.QuotaStore
	dailyLimit  int
	periodLimit int
	now         func() time.Time
	l           *applogger.Logger
	metrics     domrepo.Metrics
}

func New(store domrepo.QuotaStore, dailyLimit, periodLimit int, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		dailyLimit:  dailyLimit,
		periodLimit: periodLimit,
		now:         time.Now,
		l:           applogger.Nop(),
		metrics:     domrepo.NopMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the current UTC date key.
func (l *Ledger) Today() string {
	return util.DateKey(l.now())
}

// Check reports whether another request fits under the ceiling for dateKey. It never writes.
func (l *Ledger) Check(ctx context.Context, dateKey string) (bool, error) {
	rec, err := l.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load quota ledger: %w", err)
	}
	used := rec.DailyRequests[dateKey]
	if used >= l.dailyLimit {
		l.l.Warn("daily quota exhausted",
			applogger.String("date", dateKey),
			applogger.Int("used", used),
			applogger.Int("limit", l.dailyLimit),
		)
		return false, nil
	}
	return true, nil
}

// Record charges one request to dateKey and to the running total.
func (l *Ledger) Record(ctx context.Context, dateKey string) (*models.QuotaRecord, error) {
	rec, err := l.store.Update(ctx, func(r *models.QuotaRecord) error {
		if r.DailyRequests == nil {
			r.DailyRequests = make(map[string]int)
		}
		r.DailyRequests[dateKey]++
		r.TotalRequests++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record request: %w", err)
	}

	used := rec.DailyRequests[dateKey]
	l.metrics.RecordQuotaCharge()
	if dateKey == l.Today() {
		l.metrics.SetQuotaRemaining(max(0, l.dailyLimit-used))
	}
	l.l.Debug("request recorded",
		applogger.String("date", dateKey),
		applogger.Int("today", used),
		applogger.Int("total", rec.TotalRequests),
	)
	return rec, nil
}

// Stats summarises usage for today and the current UTC month.
func (l *Ledger) Stats(ctx context.Context) (models.QuotaStats, error) {
	st, err := l.StatsFor(ctx, l.now())
	if err != nil {
		return st, err
	}
	l.metrics.SetQuotaRemaining(st.RemainingToday)
	return st, nil
}

// StatsFor summarises usage for the UTC day and month containing t.
func (l *Ledger) StatsFor(ctx context.Context, t time.Time) (models.QuotaStats, error) {
	rec, err := l.store.Load(ctx)
	if err != nil {
		return models.QuotaStats{}, fmt.Errorf("load quota ledger: %w", err)
	}
	day := util.DateKey(t)
	month := util.MonthPrefix(t)

	periodUsed := 0
	for key, n := range rec.DailyRequests {
		if strings.HasPrefix(key, month) {
			periodUsed += n
		}
	}
	today := rec.DailyRequests[day]

	return models.QuotaStats{
		Date:            day,
		Total:           rec.TotalRequests,
		Today:           today,
		DailyLimit:      l.dailyLimit,
		RemainingToday:  max(0, l.dailyLimit-today),
		PeriodUsed:      periodUsed,
		PeriodLimit:     l.periodLimit,
		RemainingPeriod: max(0, l.periodLimit-periodUsed),
	}, nil
}

var _ domsvc.QuotaLedger = (*Ledger)(nil)
