package sequences

import (
	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	applogger "StockSeq/pkg/logger"
)

type Config struct {
	Lookback        int
	Target          string
	TestSplit       float64
	ValidationSplit float64
	MinSequences    int
}

func DefaultConfig() Config {
	return Config{
		Lookback:        10,
		Target:          models.ColClose,
		TestSplit:       0.1,
		ValidationSplit: 0.2,
		MinSequences:    100,
	}
}

// Builder turns an indicator table into a split, normalised dataset.
type Builder struct {
	cfg Config
	l   *applogger.Logger
}

func NewBuilder(cfg Config, l *applogger.Logger) *Builder {
	if l == nil {
		l = applogger.Nop()
	}
	return &Builder{cfg: cfg, l: l}
}

// Build drops incomplete rows, windows each remaining run of adjacent rows
// separately, splits chronologically and fits the normalizer on the training
// slice alone. Targets stay in price units.
func (b *Builder) Build(table *models.IndicatorTable) (*models.PreparedDataset, error) {
	set, err := b.windows(table)
	if err != nil {
		return nil, err
	}
	if set.Len() < b.cfg.MinSequences {
		return nil, errs.Newf(errs.KindInsufficientData, table.Symbol,
			"%d sequences, need at least %d", set.Len(), b.cfg.MinSequences)
	}

	split, err := Split(set, b.cfg.TestSplit, b.cfg.ValidationSplit)
	if err != nil {
		return nil, err
	}
	if len(split.XTrain) == 0 {
		return nil, errs.Newf(errs.KindInsufficientData, table.Symbol, "no training samples from %d sequences", set.Len())
	}

	norm := NewNormalizer()
	if split.XTrain, err = norm.Normalize(set.Features, split.XTrain, true); err != nil {
		return nil, err
	}
	if split.XVal, err = norm.Apply(split.XVal); err != nil {
		return nil, err
	}
	if split.XTest, err = norm.Apply(split.XTest); err != nil {
		return nil, err
	}

	b.l.Info("dataset prepared",
		applogger.Symbol(table.Symbol),
		applogger.Int("train", len(split.YTrain)),
		applogger.Int("validation", len(split.YVal)),
		applogger.Int("test", len(split.YTest)),
	)
	return &models.PreparedDataset{
		Symbol:   table.Symbol,
		Features: set.Features,
		Lookback: b.cfg.Lookback,
		Target:   b.cfg.Target,
		Params:   norm.Params(),
		Split:    split,
	}, nil
}

// windows never lets a sample span a dropped row: warm-up rows only shorten
// the first run, while a gap mid-table starts a new run.
func (b *Builder) windows(table *models.IndicatorTable) (*models.SequenceSet, error) {
	runs, dropped := table.CompleteRuns()
	if dropped > 0 {
		b.l.Debug("dropped incomplete rows",
			applogger.Symbol(table.Symbol),
			applogger.Int("dropped", dropped),
			applogger.Int("runs", len(runs)),
		)
	}

	var set *models.SequenceSet
	for _, run := range runs {
		if run.Len() <= b.cfg.Lookback {
			continue
		}
		part, err := Windows(run, b.cfg.Lookback, b.cfg.Target)
		if err != nil {
			return nil, err
		}
		if set == nil {
			set = part
			continue
		}
		set.X = append(set.X, part.X...)
		set.Y = append(set.Y, part.Y...)
	}
	if set == nil {
		if len(runs) > 0 {
			// surfaces lookback and target configuration errors
			if _, err := Windows(runs[0], b.cfg.Lookback, b.cfg.Target); err != nil {
				return nil, err
			}
		}
		return nil, errs.Newf(errs.KindInsufficientData, table.Symbol,
			"no run of %d complete rows among %d", b.cfg.Lookback+1, table.Len())
	}
	return set, nil
}
