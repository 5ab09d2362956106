package models

// SequenceSet holds supervised windows: X[i] is lookback×features, Y[i] the next target.
type SequenceSet struct {
	Features []string
	X        [][][]float64
	Y        []float64
}

func (s *SequenceSet) Len() int { return len(s.Y) }

// Split is a chronological train/validation/test partition.
type Split struct {
	XTrain [][][]float64 `json:"x_train"`
	YTrain []float64     `json:"y_train"`
	XVal   [][][]float64 `json:"x_val"`
	YVal   []float64     `json:"y_val"`
	XTest  [][][]float64 `json:"x_test"`
	YTest  []float64     `json:"y_test"`
}

// NormalizationParams are the per-feature statistics fit on the training slice.
type NormalizationParams struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Std      []float64 `json:"std"`
}

// PreparedDataset is what the dataset phase hands to the external trainer.
type PreparedDataset struct {
	Symbol   string               `json:"symbol"`
	Features []string             `json:"features"`
	Lookback int                  `json:"lookback"`
	Target   string               `json:"target"`
	Params   *NormalizationParams `json:"-"`
	Split
}

// TrainingMetadata is the sidecar the external trainer writes next to its model.
type TrainingMetadata struct {
	Symbol        string   `json:"symbol"`
	FinalLoss     *float64 `json:"final_loss,omitempty"`
	FinalValLoss  *float64 `json:"final_val_loss,omitempty"`
	FinalMAE      *float64 `json:"final_mae,omitempty"`
	FinalValMAE   *float64 `json:"final_val_mae,omitempty"`
	EpochsTrained int      `json:"epochs_trained,omitempty"`
	InputShape    []int    `json:"input_shape,omitempty"`
}
