package repository

import (
	"context"

	"StockSeq/internal/domain/models"
)

// QuotaStore persists the request ledger. Update runs fn inside one atomic
// read-modify-write cycle and returns the stored result.
type QuotaStore interface {
	Load(ctx context.Context) (*models.QuotaRecord, error)
	Update(ctx context.Context, fn func(*models.QuotaRecord) error) (*models.QuotaRecord, error)
}

// RawStore keeps the latest provider response per symbol and kind.
type RawStore interface {
	Save(ctx context.Context, obs models.RawObservationSet) error
	Load(ctx context.Context, symbol, kind string) (models.RawObservationSet, error)
}

// TableStore keeps processed indicator tables.
type TableStore interface {
	Save(ctx context.Context, t *models.IndicatorTable) error
	Load(ctx context.Context, symbol string) (*models.IndicatorTable, error)
}

// DatasetStore writes prepared train/val/test tensors for the external trainer.
type DatasetStore interface {
	Save(ctx context.Context, d *models.PreparedDataset) error
}

// ArtifactStore reads what the external trainer produced and keeps the scaler.
type ArtifactStore interface {
	SaveScaler(ctx context.Context, symbol string, p *models.NormalizationParams) error
	LoadScaler(ctx context.Context, symbol string) (*models.NormalizationParams, error)
	LoadMetadata(ctx context.Context, symbol string) (*models.TrainingMetadata, error)
}

type PredictionPublisher interface {
	Publish(ctx context.Context, preds []models.PredictionRecord) error
	Close() error
}

type Metrics interface {
	RecordFetch(symbol, outcome string)
	RecordQuotaCharge()
	SetQuotaRemaining(n int)
	RecordPhase(phase, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string)    {}
func (NopMetrics) RecordQuotaCharge()            {}
func (NopMetrics) SetQuotaRemaining(int)         {}
func (NopMetrics) RecordPhase(string, string)    {}
func (NopMetrics) RecordError(string)            {}
func (NopMetrics) RecordLatency(string, float64) {}

var _ Metrics = NopMetrics{}
