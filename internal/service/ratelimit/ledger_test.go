package ratelimit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"StockSeq/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestLedger(t *testing.T, path string, daily int, now time.Time) *Ledger {
	t.Helper()
	store := repository.NewQuotaFileStore(path, nil)
	return New(store, daily, 500, WithClock(fixedClock(now)))
}

func TestRecordCountsPerDayAndTotal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "request_log.json")
	l := newTestLedger(t, path, 10, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := l.Record(ctx, "2024-05-02")
		require.NoError(t, err)
	}
	rec, err := l.Record(ctx, "2024-05-01")
	require.NoError(t, err)

	assert.Equal(t, 3, rec.DailyRequests["2024-05-02"])
	assert.Equal(t, 1, rec.DailyRequests["2024-05-01"])
	assert.Equal(t, 4, rec.TotalRequests)
	assert.True(t, rec.Consistent())
}

func TestCheckFalseAtCeilingAndNeverWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "request_log.json")
	l := newTestLedger(t, path, 10, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	day := l.Today()

	ok, err := l.Check(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "check must not create the ledger")

	for i := 0; i < 9; i++ {
		_, err := l.Record(ctx, day)
		require.NoError(t, err)
	}
	ok, err = l.Check(ctx, day)
	require.NoError(t, err)
	assert.True(t, ok, "9 of 10 used")

	_, err = l.Record(ctx, day)
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	ok, err = l.Check(ctx, day)
	require.NoError(t, err)
	assert.False(t, ok, "10 of 10 used")
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ok, err = l.Check(ctx, "2024-05-03")
	require.NoError(t, err)
	assert.True(t, ok, "a new day starts from zero")
}

func TestLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs", "request_log.json")
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	first := newTestLedger(t, path, 10, now)
	for i := 0; i < 4; i++ {
		_, err := first.Record(ctx, first.Today())
		require.NoError(t, err)
	}

	second := newTestLedger(t, path, 10, now)
	st, err := second.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Today)
	assert.Equal(t, 6, st.RemainingToday)
}

func TestCorruptLedgerStartsFromZero(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "request_log.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := newTestLedger(t, path, 10, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	ok, err := l.Check(ctx, l.Today())
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := l.Record(ctx, l.Today())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.TotalRequests)
}

func TestStatsMonthToDate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "request_log.json")
	doc := `{"total_requests": 12, "daily_requests": {"2024-04-30": 5, "2024-05-01": 4, "2024-05-02": 3}, "last_reset": "2024-04-01T00:00:00Z"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	l := New(repository.NewQuotaFileStore(path, nil), 10, 20,
		WithClock(fixedClock(time.Date(2024, 5, 2, 23, 0, 0, 0, time.UTC))))
	st, err := l.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-02", st.Date)
	assert.Equal(t, 12, st.Total)
	assert.Equal(t, 3, st.Today)
	assert.Equal(t, 7, st.RemainingToday)
	assert.Equal(t, 7, st.PeriodUsed)
	assert.Equal(t, 13, st.RemainingPeriod)
}

func TestConcurrentRecordsAcrossStores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "request_log.json")
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	// two ledgers on the same file stand in for two processes
	a := newTestLedger(t, path, 1000, now)
	b := newTestLedger(t, path, 1000, now)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		l := a
		if i%2 == 1 {
			l = b
		}
		go func() {
			defer wg.Done()
			_, err := l.Record(ctx, "2024-05-02")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, st.Today)
	assert.Equal(t, 40, st.Total)
}
