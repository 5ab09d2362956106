package sequences

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
)

// Normalizer standardises each feature with statistics pooled over samples and timesteps.
// Once fit, the same parameters are reused for every later call.
type Normalizer struct {
	params *models.NormalizationParams
}

func NewNormalizer() *Normalizer { return &Normalizer{} }

// NewNormalizerFrom restores a normalizer from saved parameters.
func NewNormalizerFrom(p *models.NormalizationParams) *Normalizer {
	return &Normalizer{params: p}
}

// Params returns the fitted parameters, nil before the first fit.
func (n *Normalizer) Params() *models.NormalizationParams { return n.params }

// Fit computes mean and population std per feature. NaN cells are ignored;
// a constant or empty feature gets std 1 so it maps to zero rather than blowing up.
func (n *Normalizer) Fit(features []string, x [][][]float64) {
	width := len(features)
	mean := make([]float64, width)
	std := make([]float64, width)
	for f := 0; f < width; f++ {
		var vals []float64
		for _, sample := range x {
			for _, step := range sample {
				if v := step[f]; !math.IsNaN(v) {
					vals = append(vals, v)
				}
			}
		}
		if len(vals) == 0 {
			mean[f], std[f] = 0, 1
			continue
		}
		m, s := stat.PopMeanStdDev(vals, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		mean[f], std[f] = m, s
	}
	n.params = &models.NormalizationParams{
		Features: append([]string(nil), features...),
		Mean:     mean,
		Std:      std,
	}
}

// Normalize returns a scaled copy of x. With fit set the parameters are
// (re)computed from x first; otherwise the stored ones are applied.
func (n *Normalizer) Normalize(features []string, x [][][]float64, fit bool) ([][][]float64, error) {
	if fit {
		n.Fit(features, x)
	}
	if n.params == nil {
		return nil, errs.New(errs.KindArtifactNotFound, "", "normalizer has no fitted parameters")
	}
	return n.Apply(x)
}

// Apply scales x with the stored parameters.
func (n *Normalizer) Apply(x [][][]float64) ([][][]float64, error) {
	if n.params == nil {
		return nil, errs.New(errs.KindArtifactNotFound, "", "normalizer has no fitted parameters")
	}
	width := len(n.params.Mean)
	out := make([][][]float64, len(x))
	for i, sample := range x {
		scaled := make([][]float64, len(sample))
		for j, step := range sample {
			if len(step) != width {
				return nil, errs.Newf(errs.KindMalformed, "", "row has %d features, scaler expects %d", len(step), width)
			}
			row := make([]float64, width)
			for f, v := range step {
				row[f] = (v - n.params.Mean[f]) / n.params.Std[f]
			}
			scaled[j] = row
		}
		out[i] = scaled
	}
	return out, nil
}
