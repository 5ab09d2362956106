package features

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// All indicators are trailing: out[i] depends only on x[0..i].
// Cells without enough history are NaN.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the mean of the last w values, NaN for the first w-1 rows.
func SMA(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w < 1 || len(x) < w {
		return out
	}
	if w == 1 {
		copy(out, x)
		return out
	}
	s := talib.Sma(x, w)
	copy(out[w-1:], s[w-1:])
	return out
}

// EMA uses alpha = 2/(w+1) seeded with the first value (no bias adjustment).
func EMA(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w < 1 || len(x) == 0 {
		return out
	}
	alpha := 2.0 / float64(w+1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI averages the last p gains and losses of the one-step differences.
// Defined from row p; a flat window gives 50, a window with no losses gives 100.
func RSI(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p < 1 || len(x) <= p {
		return out
	}
	for i := p; i < len(x); i++ {
		var gain, loss float64
		valid := true
		for j := i - p + 1; j <= i; j++ {
			d := x[j] - x[j-1]
			if math.IsNaN(d) {
				valid = false
				break
			}
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
		}
		if !valid {
			continue
		}
		avgGain := gain / float64(p)
		avgLoss := loss / float64(p)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// PctChange is x[i]/x[i-1] - 1; NaN at row 0 and after a zero or missing value.
func PctChange(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		prev := x[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(x[i]) {
			continue
		}
		out[i] = x[i]/prev - 1
	}
	return out
}

// ROC is PctChange in percent.
func ROC(x []float64) []float64 {
	out := PctChange(x)
	for i, v := range out {
		out[i] = v * 100
	}
	return out
}

// RollingStd is the sample standard deviation (n-1) of the last w values.
// A window containing NaN yields NaN.
func RollingStd(x []float64, w int) []float64 {
	out := nanSlice(len(x))
	if w < 2 || len(x) < w {
		return out
	}
	for i := w - 1; i < len(x); i++ {
		win := x[i-w+1 : i+1]
		if hasNaN(win) {
			continue
		}
		out[i] = stat.StdDev(win, nil)
	}
	return out
}

func hasNaN(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
