package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeq/internal/domain/models"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTTLCache_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)}
	c := NewTTLCache[int](time.Second, clk.now)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 7)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	clk.advance(1500 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Stats(ctx context.Context) (models.QuotaStats, error) {
	return s.StatsFor(ctx, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC))
}

func (s *countingSource) StatsFor(_ context.Context, t time.Time) (models.QuotaStats, error) {
	s.calls++
	if s.err != nil {
		return models.QuotaStats{}, s.err
	}
	return models.QuotaStats{Date: t.Format("2006-01-02"), Today: s.calls}, nil
}

func TestQuotaStats_CachesPerDate(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)}
	src := &countingSource{}
	qs := NewQuotaStats(src, 2*time.Second, clk.now)
	ctx := context.Background()

	a, err := qs.Stats(ctx)
	require.NoError(t, err)
	b, err := qs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, src.calls)

	may, err := qs.StatsFor(ctx, time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-20", may.Date)
	assert.Equal(t, 2, src.calls)

	clk.advance(3 * time.Second)
	_, err = qs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestQuotaStats_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("ledger unreadable")}
	qs := NewQuotaStats(src, time.Minute, nil)

	_, err := qs.Stats(context.Background())
	require.Error(t, err)
	_, err = qs.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestQuotaStats_ZeroTTLPassesThrough(t *testing.T) {
	src := &countingSource{}
	assert.Same(t, StatsSource(src), NewQuotaStats(src, 0, nil))
}
