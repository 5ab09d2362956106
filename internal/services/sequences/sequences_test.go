package sequences

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTable builds n rows with columns a (=i), close (=100+i) and b (=2i+1).
func makeTable(n int) *models.IndicatorTable {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := &models.IndicatorTable{Symbol: "TCS", Columns: []string{"a", "close", "b"}}
	for i := 0; i < n; i++ {
		f := float64(i)
		table.Rows = append(table.Rows, models.IndicatorRow{
			Timestamp: t0.AddDate(0, 0, i),
			Values:    []float64{f, 100 + f, 2*f + 1},
		})
	}
	return table
}

func TestWindowsShape(t *testing.T) {
	set, err := Windows(makeTable(40), 10, "close")
	require.NoError(t, err)

	require.Equal(t, 30, set.Len())
	require.Len(t, set.X, 30)
	assert.Equal(t, []string{"a", "close", "b"}, set.Features)
	for i := 0; i < 10; i++ {
		assert.Equal(t, []float64{float64(i), 100 + float64(i), 2*float64(i) + 1}, set.X[0][i])
	}
	assert.Equal(t, 110.0, set.Y[0])
	assert.Equal(t, 139.0, set.Y[29])
	assert.Equal(t, 38.0, set.X[29][9][0])
}

func TestWindowsErrors(t *testing.T) {
	_, err := Windows(makeTable(10), 10, "close")
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))

	_, err = Windows(makeTable(20), 0, "close")
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))

	_, err = Windows(makeTable(20), 5, "price")
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestSplitLengths(t *testing.T) {
	set, err := Windows(makeTable(40), 10, "close")
	require.NoError(t, err)

	s, err := Split(set, 0.1, 0.2)
	require.NoError(t, err)
	assert.Len(t, s.XTrain, 21)
	assert.Len(t, s.XVal, 6)
	assert.Len(t, s.XTest, 3)
	assert.Equal(t, set.Len(), len(s.YTrain)+len(s.YVal)+len(s.YTest))

	// chronological: each slice continues where the previous ended
	assert.Equal(t, set.Y[20], s.YTrain[20])
	assert.Equal(t, set.Y[21], s.YVal[0])
	assert.Equal(t, set.Y[27], s.YTest[0])
}

func TestSplitRejectsFractions(t *testing.T) {
	set, _ := Windows(makeTable(40), 10, "close")
	for _, fr := range [][2]float64{{0, 0.2}, {0.1, 1}, {-0.1, 0.2}, {0.1, 1.5}} {
		_, err := Split(set, fr[0], fr[1])
		assert.Equal(t, errs.KindConfiguration, errs.KindOf(err), "fractions %v", fr)
	}
}

func pooled(x [][][]float64, f int) (mean, std float64) {
	var sum, n float64
	for _, s := range x {
		for _, r := range s {
			sum += r[f]
			n++
		}
	}
	mean = sum / n
	var ss float64
	for _, s := range x {
		for _, r := range s {
			ss += (r[f] - mean) * (r[f] - mean)
		}
	}
	return mean, math.Sqrt(ss / n)
}

func TestNormalizeFitStandardises(t *testing.T) {
	set, err := Windows(makeTable(40), 10, "close")
	require.NoError(t, err)

	n := NewNormalizer()
	out, err := n.Normalize(set.Features, set.X, true)
	require.NoError(t, err)

	for f := range set.Features {
		m, s := pooled(out, f)
		assert.InDelta(t, 0, m, 1e-9, "feature %d mean", f)
		assert.InDelta(t, 1, s, 1e-9, "feature %d std", f)
	}
	// input untouched
	assert.Equal(t, 0.0, set.X[0][0][0])
}

func TestNormalizeReusesStoredParams(t *testing.T) {
	set, _ := Windows(makeTable(40), 10, "close")
	n := NewNormalizer()
	_, err := n.Normalize(set.Features, set.X[:5], true)
	require.NoError(t, err)
	before := *n.Params()

	out, err := n.Normalize(set.Features, set.X[20:], false)
	require.NoError(t, err)
	assert.Equal(t, before.Mean, n.Params().Mean)
	assert.Equal(t, before.Std, n.Params().Std)

	want := (set.X[20][0][1] - before.Mean[1]) / before.Std[1]
	assert.InDelta(t, want, out[0][0][1], 1e-12)

	restored := NewNormalizerFrom(&before)
	again, err := restored.Normalize(set.Features, set.X[20:], false)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestNormalizeWithoutParams(t *testing.T) {
	_, err := NewNormalizer().Normalize([]string{"a"}, [][][]float64{{{1}}}, false)
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
}

func TestNormalizeConstantAndNaN(t *testing.T) {
	x := [][][]float64{
		{{5, math.NaN()}, {5, 2}},
		{{5, 4}, {5, math.NaN()}},
	}
	n := NewNormalizer()
	out, err := n.Normalize([]string{"flat", "gappy"}, x, true)
	require.NoError(t, err)

	assert.Equal(t, 1.0, n.Params().Std[0])
	assert.Equal(t, 0.0, out[0][0][0])
	assert.Equal(t, 3.0, n.Params().Mean[1])
	assert.Equal(t, 1.0, n.Params().Std[1])
	assert.True(t, math.IsNaN(out[0][0][1]))
}

func TestBuilderFitsOnTrainOnly(t *testing.T) {
	table := makeTable(150)
	// warm-up rows with missing cells
	table.Rows[0].Values[2] = math.NaN()
	table.Rows[1].Values[0] = math.NaN()

	cfg := DefaultConfig()
	ds, err := NewBuilder(cfg, nil).Build(table)
	require.NoError(t, err)

	// 148 complete rows, 138 sequences -> test starts at 124, train ends at 99
	assert.Len(t, ds.YTrain, 99)
	assert.Len(t, ds.YVal, 25)
	assert.Len(t, ds.YTest, 14)
	assert.Equal(t, 10, ds.Lookback)
	assert.Equal(t, "close", ds.Target)
	assert.Equal(t, 112.0, ds.YTrain[0])

	for f := range ds.Features {
		m, s := pooled(ds.XTrain, f)
		assert.InDelta(t, 0, m, 1e-9)
		assert.InDelta(t, 1, s, 1e-9)
	}
	// validation sits above the training range, so its scaled mean is positive
	m, _ := pooled(ds.XVal, 0)
	assert.Greater(t, m, 1.0)

	raw := 2.0 + float64(99) // first value of the first validation window, column a
	want := (raw - ds.Params.Mean[0]) / ds.Params.Std[0]
	assert.InDelta(t, want, ds.XVal[0][0][0], 1e-9)
}

func TestBuilderMinSequences(t *testing.T) {
	_, err := NewBuilder(DefaultConfig(), nil).Build(makeTable(100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))

	cfg := DefaultConfig()
	cfg.MinSequences = 20
	ds, err := NewBuilder(cfg, nil).Build(makeTable(40))
	require.NoError(t, err)
	assert.Len(t, ds.YTrain, 21)
}

func TestBuilderGapStartsNewRun(t *testing.T) {
	table := makeTable(150)
	table.Rows[60].Values[0] = math.NaN()

	b := NewBuilder(DefaultConfig(), nil)
	set, err := b.windows(table)
	require.NoError(t, err)

	// rows 0..59 give 50 samples, rows 61..149 give 79
	require.Equal(t, 129, set.Len())
	for i := range set.X {
		for j := 1; j < len(set.X[i]); j++ {
			assert.Equal(t, set.X[i][j-1][0]+1, set.X[i][j][0], "sample %d step %d", i, j)
		}
		last := set.X[i][len(set.X[i])-1][0]
		assert.Equal(t, 100+last+1, set.Y[i], "sample %d target", i)
	}
	assert.Equal(t, 159.0, set.Y[49])
	assert.Equal(t, 61.0, set.X[50][0][0])

	ds, err := b.Build(table)
	require.NoError(t, err)
	assert.Equal(t, 129, len(ds.YTrain)+len(ds.YVal)+len(ds.YTest))
}

func TestBuilderNoUsableRun(t *testing.T) {
	table := makeTable(30)
	for i := 0; i < 30; i += 5 {
		table.Rows[i].Values[1] = math.NaN()
	}
	_, err := NewBuilder(DefaultConfig(), nil).Build(table)
	assert.True(t, errors.Is(err, errs.ErrInsufficientData))

	cfg := DefaultConfig()
	cfg.Target = "price"
	_, err = NewBuilder(cfg, nil).Build(makeTable(30))
	assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}
