package service

import (
	"context"

	"StockSeq/internal/domain/models"
)

// QuotaLedger gates and charges provider requests per UTC day.
type QuotaLedger interface {
	Today() string
	Check(ctx context.Context, dateKey string) (bool, error)
	Record(ctx context.Context, dateKey string) (*models.QuotaRecord, error)
	Stats(ctx context.Context) (models.QuotaStats, error)
}

// HistoryFetcher downloads historical bars for one symbol.
type HistoryFetcher interface {
	FetchHistorical(ctx context.Context, symbol string, days int) (models.RawObservationSet, error)
}

// MarketDataFetcher also covers the supplementary quote and company datasets.
type MarketDataFetcher interface {
	HistoryFetcher
	FetchQuote(ctx context.Context, symbol string) (models.RawObservationSet, error)
	FetchCompany(ctx context.Context, symbol string) (models.RawObservationSet, error)
}

// Scorer is the external trained model: one normalized window in, one target value out.
type Scorer interface {
	Score(ctx context.Context, symbol string, window [][]float64) (float64, error)
}
