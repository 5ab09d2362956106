package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"StockSeq/internal/domain/errs"
	domsvc "StockSeq/internal/domain/service"
	xhttp "StockSeq/pkg/http"
)

const predictPath = "/predict"

type predictRequest struct {
	Symbol string      `json:"symbol"`
	Window [][]float64 `json:"window"`
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
}

// HTTPScorer asks the model service for a next-step value.
type HTTPScorer struct {
	base     *HTTPServiceBase
	attempts int
}

var _ domsvc.Scorer = (*HTTPScorer)(nil)

func NewHTTPScorer(baseURL string, timeout time.Duration, attempts int, opts ...xhttp.ClientOption) *HTTPScorer {
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPScorer{base: NewHTTPServiceBase(baseURL, timeout, opts...), attempts: attempts}
}

func (s *HTTPScorer) Score(ctx context.Context, symbol string, window [][]float64) (float64, error) {
	var resp predictResponse
	err := s.base.PostJSONWithRetry(ctx, predictPath, predictRequest{Symbol: symbol, Window: window}, &resp, s.attempts)
	if err != nil {
		var se *xhttp.StatusError
		if isDecodeError(err) {
			return 0, errs.Wrap(errs.KindMalformed, symbol, err, "model service answer is not valid JSON")
		}
		if errors.As(err, &se) {
			return 0, errs.Wrap(errs.KindServer, symbol, err, "model service rejected request").WithStatus(se.StatusCode)
		}
		return 0, errs.Wrap(errs.KindNetwork, symbol, err, "model service unreachable")
	}
	if resp.Prediction == nil || math.IsNaN(*resp.Prediction) || math.IsInf(*resp.Prediction, 0) {
		return 0, errs.New(errs.KindMalformed, symbol, "model service returned no usable prediction")
	}
	return *resp.Prediction, nil
}
