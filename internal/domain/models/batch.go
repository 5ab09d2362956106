package models

import "time"

// Pipeline phases.
const (
	PhaseAcquire  = "acquire"
	PhaseFeatures = "features"
	PhaseDataset  = "dataset"
	PhasePredict  = "predict"
)

// SymbolFailure records why one instrument failed in a batch.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// BatchReport summarises one phase over all instruments.
type BatchReport struct {
	RunID      string          `json:"run_id"`
	Phase      string          `json:"phase"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `json:"total"`
	Succeeded  []string        `json:"succeeded"`
	Failed     []SymbolFailure `json:"failed"`
}

func (r *BatchReport) OK() bool { return len(r.Failed) == 0 }

// FailedSymbols lists the instruments that failed, in order.
func (r *BatchReport) FailedSymbols() []string {
	out := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		out[i] = f.Symbol
	}
	return out
}
