package usecase

import (
	"context"
	"fmt"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	domsvc "StockSeq/internal/domain/service"
	"StockSeq/internal/services/inference"
	applogger "StockSeq/pkg/logger"
)

// Predictor scores the latest window of every symbol with the external model.
type Predictor struct {
	tables    domrepo.TableStore
	artifacts domrepo.ArtifactStore
	assembler *inference.Assembler
	scorer    domsvc.Scorer
	publisher domrepo.PredictionPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewPredictor(
	tables domrepo.TableStore,
	artifacts domrepo.ArtifactStore,
	assembler *inference.Assembler,
	scorer domsvc.Scorer,
	publisher domrepo.PredictionPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Predictor {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Predictor{
		tables:    tables,
		artifacts: artifacts,
		assembler: assembler,
		scorer:    scorer,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
}

// Run returns the predictions that succeeded. A publish failure is returned
// as an error alongside the report and predictions.
func (p *Predictor) Run(ctx context.Context, symbols []string) (*models.BatchReport, []models.PredictionRecord, error) {
	b := newBatch(models.PhasePredict, symbols, p.metrics, p.l, p.now)
	preds := make([]models.PredictionRecord, 0, len(symbols))
	for _, sym := range symbols {
		rec, err := p.predictOne(ctx, sym)
		if err != nil {
			b.fail(sym, err)
			continue
		}
		preds = append(preds, rec)
		b.ok(sym)
	}
	report := b.finish()

	if err := p.publisher.Publish(ctx, preds); err != nil {
		p.metrics.RecordError("publish")
		return report, preds, fmt.Errorf("publish predictions: %w", err)
	}
	return report, preds, nil
}

func (p *Predictor) predictOne(ctx context.Context, symbol string) (models.PredictionRecord, error) {
	meta, err := p.artifacts.LoadMetadata(ctx, symbol)
	if err != nil {
		return models.PredictionRecord{}, err
	}
	params, err := p.artifacts.LoadScaler(ctx, symbol)
	if err != nil {
		return models.PredictionRecord{}, err
	}
	table, err := p.tables.Load(ctx, symbol)
	if err != nil {
		return models.PredictionRecord{}, err
	}
	start := time.Now()
	rec, err := p.assembler.Assemble(ctx, symbol, table, p.scorer, meta, params)
	p.metrics.RecordLatency("score", time.Since(start).Seconds())
	return rec, err
}
