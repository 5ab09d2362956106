package models

import "time"

// QuotaRecord is the persisted request ledger.
// TotalRequests always equals the sum of DailyRequests.
type QuotaRecord struct {
	TotalRequests int            `json:"total_requests"`
	DailyRequests map[string]int `json:"daily_requests"`
	LastReset     time.Time      `json:"last_reset"`
}

// NewQuotaRecord returns an empty ledger.
func NewQuotaRecord(now time.Time) *QuotaRecord {
	return &QuotaRecord{
		DailyRequests: make(map[string]int),
		LastReset:     now.UTC(),
	}
}

// Consistent reports whether the total matches the daily buckets.
func (q *QuotaRecord) Consistent() bool {
	sum := 0
	for _, n := range q.DailyRequests {
		if n < 0 {
			return false
		}
		sum += n
	}
	return sum == q.TotalRequests
}

// QuotaStats summarises ledger usage for a day and its calendar month.
type QuotaStats struct {
	Date            string `json:"date"`
	Total           int    `json:"total"`
	Today           int    `json:"today"`
	DailyLimit      int    `json:"daily_limit"`
	RemainingToday  int    `json:"remaining_today"`
	PeriodUsed      int    `json:"period_used"`
	PeriodLimit     int    `json:"period_limit"`
	RemainingPeriod int    `json:"remaining_period"`
}
