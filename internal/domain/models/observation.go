package models

import (
	"encoding/json"
	"time"
)

// Raw dataset kinds served by the provider.
const (
	KindHistorical = "historical"
	KindQuote      = "quote"
	KindCompany    = "company"
)

// RawObservationSet is a provider response kept byte-for-byte.
type RawObservationSet struct {
	Symbol    string
	Kind      string
	FetchedAt time.Time
	Body      json.RawMessage
}

// OHLCVRow is one bar. Missing cells are NaN.
type OHLCVRow struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}
