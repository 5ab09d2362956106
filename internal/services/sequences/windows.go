package sequences

import (
	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
)

// Windows slices table into supervised samples: X[i] holds rows [i, i+lookback)
// over every column, Y[i] the target column at row i+lookback.
func Windows(table *models.IndicatorTable, lookback int, target string) (*models.SequenceSet, error) {
	n := table.Len()
	if lookback < 1 {
		return nil, errs.Newf(errs.KindConfiguration, table.Symbol, "lookback must be positive, got %d", lookback)
	}
	tIdx := table.ColumnIndex(target)
	if tIdx < 0 {
		return nil, errs.Newf(errs.KindConfiguration, table.Symbol, "target column %q not in table", target)
	}
	if lookback >= n {
		return nil, errs.Newf(errs.KindInsufficientData, table.Symbol, "%d rows cannot fill a lookback of %d", n, lookback)
	}

	count := n - lookback
	set := &models.SequenceSet{
		Features: append([]string(nil), table.Columns...),
		X:        make([][][]float64, count),
		Y:        make([]float64, count),
	}
	for i := 0; i < count; i++ {
		window := make([][]float64, lookback)
		for j := 0; j < lookback; j++ {
			window[j] = append([]float64(nil), table.Rows[i+j].Values...)
		}
		set.X[i] = window
		set.Y[i] = table.Rows[i+lookback].Values[tIdx]
	}
	return set, nil
}
