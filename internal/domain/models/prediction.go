package models

import "time"

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// PredictionRecord is one next-step forecast. Confidence is a heuristic
// derived from validation error, not a statistical interval.
type PredictionRecord struct {
	Symbol         string    `json:"symbol"`
	CurrentPrice   float64   `json:"current_price"`
	PredictedPrice float64   `json:"predicted_price"`
	PriceChange    float64   `json:"price_change"`
	PercentChange  float64   `json:"percent_change"`
	Confidence     float64   `json:"confidence"`
	Direction      Direction `json:"direction"`
	DataPoints     int       `json:"data_points"`
	GeneratedAt    time.Time `json:"generated_at"`
}
