package usecase

import (
	"context"
	"fmt"
	"io"

	"StockSeq/internal/domain/models"
	domsvc "StockSeq/internal/domain/service"
)

// QuotaStatus reports ledger usage.
type QuotaStatus struct {
	ledger domsvc.QuotaLedger
}

func NewQuotaStatus(ledger domsvc.QuotaLedger) *QuotaStatus {
	return &QuotaStatus{ledger: ledger}
}

func (s *QuotaStatus) Stats(ctx context.Context) (models.QuotaStats, error) {
	return s.ledger.Stats(ctx)
}

// Write prints today's and this month's usage.
func (s *QuotaStatus) Write(ctx context.Context, w io.Writer) error {
	st, err := s.ledger.Stats(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"Quota status (%s)\n  today:     %d/%d used, %d remaining\n  month:     %d/%d used, %d remaining\n  all time:  %d requests\n",
		st.Date,
		st.Today, st.DailyLimit, st.RemainingToday,
		st.PeriodUsed, st.PeriodLimit, st.RemainingPeriod,
		st.Total,
	)
	return err
}
