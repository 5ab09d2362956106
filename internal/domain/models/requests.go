package models

// Requests for the ops HTTP endpoints.

type QuotaRequest struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}
