package usecase

import (
	"context"

	"StockSeq/internal/domain/models"
)

// Pipeline chains acquisition, feature building and dataset preparation.
type Pipeline struct {
	acquirer *Acquirer
	features *FeatureBuilder
	datasets *DatasetBuilder
}

func NewPipeline(a *Acquirer, f *FeatureBuilder, d *DatasetBuilder) *Pipeline {
	return &Pipeline{acquirer: a, features: f, datasets: d}
}

// Run executes the three phases. Features are rebuilt for every symbol so that
// previously acquired data is still processed when today's quota is gone; the
// dataset phase only sees symbols whose features succeeded.
func (p *Pipeline) Run(ctx context.Context, symbols []string) ([]*models.BatchReport, error) {
	var reports []*models.BatchReport

	acq, err := p.acquirer.Run(ctx, symbols)
	if err != nil {
		return reports, err
	}
	reports = append(reports, acq)

	feat, err := p.features.Run(ctx, symbols)
	if err != nil {
		return reports, err
	}
	reports = append(reports, feat)

	ds, err := p.datasets.Run(ctx, feat.Succeeded)
	if err != nil {
		return reports, err
	}
	return append(reports, ds), nil
}
