package usecase

import (
	"context"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	"StockSeq/internal/services/features"
	applogger "StockSeq/pkg/logger"
)

// FeatureBuilder turns stored raw payloads into processed indicator tables.
type FeatureBuilder struct {
	raw     domrepo.RawStore
	tables  domrepo.TableStore
	engine  *features.Engine
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func NewFeatureBuilder(
	raw domrepo.RawStore,
	tables domrepo.TableStore,
	engine *features.Engine,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *FeatureBuilder {
	return &FeatureBuilder{raw: raw, tables: tables, engine: engine, metrics: metrics, l: l, now: time.Now}
}

func (f *FeatureBuilder) Run(ctx context.Context, symbols []string) (*models.BatchReport, error) {
	b := newBatch(models.PhaseFeatures, symbols, f.metrics, f.l, f.now)
	for _, sym := range symbols {
		if err := f.buildOne(ctx, sym); err != nil {
			b.fail(sym, err)
			continue
		}
		b.ok(sym)
	}
	return b.finish(), nil
}

func (f *FeatureBuilder) buildOne(ctx context.Context, symbol string) error {
	obs, err := f.raw.Load(ctx, symbol, models.KindHistorical)
	if err != nil {
		return err
	}
	table, err := f.engine.Build(symbol, obs.Body)
	if err != nil {
		return err
	}
	return f.tables.Save(ctx, table)
}
