package server

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeq/internal/domain/models"
	"StockSeq/internal/usecase"
	"StockSeq/pkg/config"
)

type stubLedger struct{ stats models.QuotaStats }

func (s *stubLedger) Today() string                                    { return s.stats.Date }
func (s *stubLedger) Check(context.Context, string) (bool, error)      { return true, nil }
func (s *stubLedger) Stats(context.Context) (models.QuotaStats, error) { return s.stats, nil }
func (s *stubLedger) Record(context.Context, string) (*models.QuotaRecord, error) {
	return nil, errors.New("not used")
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	ledger := &stubLedger{stats: models.QuotaStats{
		Date: "2026-10-19", Total: 42, Today: 4, DailyLimit: 10, RemainingToday: 6,
		PeriodUsed: 42, PeriodLimit: 500, RemainingPeriod: 458,
	}}
	app := New(cfg, nil, Phases{Status: usecase.NewQuotaStatus(ledger)}, nil)
	var out bytes.Buffer
	app.SetOutput(&out)
	return app, &out
}

func TestRun_Status(t *testing.T) {
	app, out := newTestApp(t)
	require.NoError(t, app.Run(context.Background(), CmdStatus, nil))
	assert.Contains(t, out.String(), "2026-10-19")
	assert.Contains(t, out.String(), "4/10 used, 6 remaining")
	assert.Contains(t, out.String(), "42/500 used")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(t)
	err := app.Run(context.Background(), "train", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestServe_WithoutServer(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Error(t, app.Serve(context.Background()))
}

func TestIncomplete(t *testing.T) {
	ok := &models.BatchReport{Phase: models.PhaseAcquire, Total: 1, Succeeded: []string{"TCS"}}
	bad := &models.BatchReport{Phase: models.PhaseFeatures, Total: 1,
		Failed: []models.SymbolFailure{{Symbol: "INFY", Kind: "malformed", Reason: "x"}}}

	assert.NoError(t, incomplete(ok))
	err := incomplete(ok, bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncomplete))
	assert.Contains(t, err.Error(), models.PhaseFeatures)
}

func TestPrintReport(t *testing.T) {
	app, out := newTestApp(t)
	app.printReport(&models.BatchReport{
		RunID: "r1", Phase: models.PhaseAcquire, Total: 2,
		Succeeded: []string{"TCS"},
		Failed:    []models.SymbolFailure{{Symbol: "INFY", Kind: "rate_limited", Reason: "daily quota exhausted"}},
	})
	assert.Contains(t, out.String(), "acquire: 1/2 succeeded (run r1)")
	assert.Contains(t, out.String(), "INFY")
	assert.Contains(t, out.String(), "rate_limited")
}
