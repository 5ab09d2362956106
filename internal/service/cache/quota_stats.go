package cache

import (
	"context"
	"time"

	"StockSeq/internal/domain/models"
	"StockSeq/pkg/util"
)

// StatsSource is the read side of the quota ledger.
type StatsSource interface {
	Stats(ctx context.Context) (models.QuotaStats, error)
	StatsFor(ctx context.Context, t time.Time) (models.QuotaStats, error)
}

// QuotaStats serves ledger reads from a short-lived cache. Errors are never cached.
type QuotaStats struct {
	src   StatsSource
	cache *TTLCache[models.QuotaStats]
}

// NewQuotaStats wraps src. A ttl of zero or less disables caching.
func NewQuotaStats(src StatsSource, ttl time.Duration, now func() time.Time) StatsSource {
	if ttl <= 0 {
		return src
	}
	return &QuotaStats{src: src, cache: NewTTLCache[models.QuotaStats](ttl, now)}
}

func (q *QuotaStats) Stats(ctx context.Context) (models.QuotaStats, error) {
	return q.load("today", func() (models.QuotaStats, error) { return q.src.Stats(ctx) })
}

func (q *QuotaStats) StatsFor(ctx context.Context, t time.Time) (models.QuotaStats, error) {
	return q.load(util.DateKey(t), func() (models.QuotaStats, error) { return q.src.StatsFor(ctx, t) })
}

func (q *QuotaStats) load(key string, fetch func() (models.QuotaStats, error)) (models.QuotaStats, error) {
	if st, ok := q.cache.Get(key); ok {
		return st, nil
	}
	st, err := fetch()
	if err != nil {
		return models.QuotaStats{}, err
	}
	q.cache.Set(key, st)
	return st, nil
}
