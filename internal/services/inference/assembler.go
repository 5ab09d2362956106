package inference

import (
	"context"
	"math"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domsvc "StockSeq/internal/domain/service"
	"StockSeq/internal/services/sequences"
	applogger "StockSeq/pkg/logger"
)

type Config struct {
	Lookback          int
	DefaultConfidence float64
}

type Option func(*Assembler)

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func WithLogger(l *applogger.Logger) Option {
	return func(a *Assembler) { a.l = l }
}

// Assembler builds the latest input window for a symbol and turns the
// model's answer into a PredictionRecord.
type Assembler struct {
	cfg Config
	now func() time.Time
	l   *applogger.Logger
}

func NewAssembler(cfg Config, opts ...Option) *Assembler {
	a := &Assembler{cfg: cfg, now: time.Now, l: applogger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble scales the last lookback rows with the stored params, scores them and
// derives the price change. The table is never used to refit the scaler.
func (a *Assembler) Assemble(
	ctx context.Context,
	symbol string,
	table *models.IndicatorTable,
	scorer domsvc.Scorer,
	meta *models.TrainingMetadata,
	params *models.NormalizationParams,
) (models.PredictionRecord, error) {
	if meta == nil {
		return models.PredictionRecord{}, errs.New(errs.KindArtifactNotFound, symbol, "no training metadata")
	}
	if params == nil {
		return models.PredictionRecord{}, errs.New(errs.KindArtifactNotFound, symbol, "no normalization params")
	}
	window, current, err := a.window(symbol, table, params)
	if err != nil {
		return models.PredictionRecord{}, err
	}

	scaled, err := sequences.NewNormalizerFrom(params).Apply([][][]float64{window})
	if err != nil {
		return models.PredictionRecord{}, err
	}

	predicted, err := scorer.Score(ctx, symbol, scaled[0])
	if err != nil {
		return models.PredictionRecord{}, err
	}

	change := predicted - current
	pct := 0.0
	if current != 0 {
		pct = change / current * 100
	}
	dir := models.DirectionDown
	if change > 0 {
		dir = models.DirectionUp
	}
	rec := models.PredictionRecord{
		Symbol:         symbol,
		CurrentPrice:   current,
		PredictedPrice: predicted,
		PriceChange:    change,
		PercentChange:  pct,
		Confidence:     Confidence(meta, a.cfg.DefaultConfidence),
		Direction:      dir,
		DataPoints:     table.Len(),
		GeneratedAt:    a.now().UTC(),
	}
	a.l.Debug("prediction assembled",
		applogger.Symbol(symbol),
		applogger.Float64("current", current),
		applogger.Float64("predicted", predicted),
	)
	return rec, nil
}

func (a *Assembler) window(symbol string, table *models.IndicatorTable, params *models.NormalizationParams) ([][]float64, float64, error) {
	if a.cfg.Lookback < 1 {
		return nil, 0, errs.Newf(errs.KindConfiguration, symbol, "lookback must be positive, got %d", a.cfg.Lookback)
	}
	if table == nil || table.Len() < a.cfg.Lookback {
		n := 0
		if table != nil {
			n = table.Len()
		}
		return nil, 0, errs.Newf(errs.KindInsufficientData, symbol, "%d rows, need %d", n, a.cfg.Lookback)
	}
	if !sameColumns(table.Columns, params.Features) {
		return nil, 0, errs.Newf(errs.KindMalformed, symbol, "table columns %v do not match scaler features %v", table.Columns, params.Features)
	}
	closeIdx := table.ColumnIndex(models.ColClose)
	if closeIdx < 0 {
		return nil, 0, errs.New(errs.KindMalformed, symbol, "table has no close column")
	}

	tail := table.Tail(a.cfg.Lookback)
	window := make([][]float64, len(tail.Rows))
	for i, r := range tail.Rows {
		if !r.Complete() {
			return nil, 0, errs.Newf(errs.KindInsufficientData, symbol, "row %s has missing indicator values", r.Timestamp.Format(time.RFC3339))
		}
		window[i] = append([]float64(nil), r.Values...)
	}
	return window, window[len(window)-1][closeIdx], nil
}

// Confidence maps validation MAE to a 0-100 score: 100 - mae*100, clamped.
// This is a heuristic for ranking, not a statistical interval.
func Confidence(meta *models.TrainingMetadata, def float64) float64 {
	if meta == nil || meta.FinalValMAE == nil || math.IsNaN(*meta.FinalValMAE) {
		return def
	}
	return math.Max(0, math.Min(100, 100-*meta.FinalValMAE*100))
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
