package usecase

import (
	"context"
	"fmt"
	"time"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	"StockSeq/internal/services/sequences"
	applogger "StockSeq/pkg/logger"
)

// DatasetBuilder prepares training tensors and the matching scaler per symbol.
type DatasetBuilder struct {
	tables    domrepo.TableStore
	datasets  domrepo.DatasetStore
	artifacts domrepo.ArtifactStore
	builder   *sequences.Builder
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewDatasetBuilder(
	tables domrepo.TableStore,
	datasets domrepo.DatasetStore,
	artifacts domrepo.ArtifactStore,
	builder *sequences.Builder,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *DatasetBuilder {
	return &DatasetBuilder{
		tables:    tables,
		datasets:  datasets,
		artifacts: artifacts,
		builder:   builder,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
}

func (d *DatasetBuilder) Run(ctx context.Context, symbols []string) (*models.BatchReport, error) {
	b := newBatch(models.PhaseDataset, symbols, d.metrics, d.l, d.now)
	for _, sym := range symbols {
		if err := d.buildOne(ctx, sym); err != nil {
			b.fail(sym, err)
			continue
		}
		b.ok(sym)
	}
	return b.finish(), nil
}

func (d *DatasetBuilder) buildOne(ctx context.Context, symbol string) error {
	table, err := d.tables.Load(ctx, symbol)
	if err != nil {
		return err
	}
	ds, err := d.builder.Build(table)
	if err != nil {
		return err
	}
	if err := d.datasets.Save(ctx, ds); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if err := d.artifacts.SaveScaler(ctx, symbol, ds.Params); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	return nil
}
