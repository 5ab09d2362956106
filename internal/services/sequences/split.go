package sequences

import (
	"math"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
)

// Split partitions set chronologically. With n samples:
//
//	testStart  = floor(n * (1 - testFrac))
//	trainEnd   = floor(testStart * (1 - valFrac))
//
// train is [0, trainEnd), validation [trainEnd, testStart), test [testStart, n).
func Split(set *models.SequenceSet, testFrac, valFrac float64) (models.Split, error) {
	if !inUnit(testFrac) || !inUnit(valFrac) {
		return models.Split{}, errs.Newf(errs.KindConfiguration, "",
			"split fractions must be in (0,1), got test=%v validation=%v", testFrac, valFrac)
	}
	n := set.Len()
	testStart := int(math.Floor(float64(n) * (1 - testFrac)))
	trainEnd := int(math.Floor(float64(testStart) * (1 - valFrac)))

	return models.Split{
		XTrain: set.X[:trainEnd],
		YTrain: set.Y[:trainEnd],
		XVal:   set.X[trainEnd:testStart],
		YVal:   set.Y[trainEnd:testStart],
		XTest:  set.X[testStart:],
		YTest:  set.Y[testStart:],
	}, nil
}

func inUnit(f float64) bool { return f > 0 && f < 1 }
