package usecase

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	applogger "StockSeq/pkg/logger"
)

// batch tracks one phase run over a symbol list.
type batch struct {
	report  *models.BatchReport
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func newBatch(phase string, symbols []string, metrics domrepo.Metrics, l *applogger.Logger, now func() time.Time) *batch {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	b := &batch{
		report: &models.BatchReport{
			RunID:     uuid.NewString(),
			Phase:     phase,
			StartedAt: now().UTC(),
			Total:     len(symbols),
			Succeeded: []string{},
			Failed:    []models.SymbolFailure{},
		},
		metrics: metrics,
		now:     now,
	}
	b.l = l.With(applogger.String("run_id", b.report.RunID), applogger.String("phase", phase))
	return b
}

func (b *batch) ok(symbol string) {
	b.report.Succeeded = append(b.report.Succeeded, symbol)
	b.metrics.RecordPhase(b.report.Phase, "ok")
	b.l.Info("symbol done", applogger.Symbol(symbol))
}

func (b *batch) fail(symbol string, err error) {
	kind := errs.KindOf(err)
	reason := err.Error()
	var e *errs.Error
	if errors.As(err, &e) && e.Message != "" {
		reason = e.Message
	}
	b.report.Failed = append(b.report.Failed, models.SymbolFailure{Symbol: symbol, Kind: string(kind), Reason: reason})
	b.metrics.RecordPhase(b.report.Phase, "failed")
	b.metrics.RecordError(string(kind))
	b.l.Warn("symbol failed",
		applogger.Symbol(symbol),
		applogger.String("kind", string(kind)),
		applogger.Error(err),
	)
}

func (b *batch) finish() *models.BatchReport {
	b.report.FinishedAt = b.now().UTC()
	b.metrics.RecordLatency(b.report.Phase, b.report.FinishedAt.Sub(b.report.StartedAt).Seconds())
	b.l.Info("phase finished",
		applogger.Int("total", b.report.Total),
		applogger.Int("succeeded", len(b.report.Succeeded)),
		applogger.Int("failed", len(b.report.Failed)),
		applogger.Strings("failed_symbols", b.report.FailedSymbols()),
	)
	return b.report
}
