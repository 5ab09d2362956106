package inference

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"StockSeq/internal/domain/models"
)

// Summary aggregates a batch of predictions.
type Summary struct {
	Total         int     `json:"total"`
	Up            int     `json:"up"`
	Down          int     `json:"down"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func Summarize(preds []models.PredictionRecord) Summary {
	s := Summary{Total: len(preds)}
	var conf float64
	for _, p := range preds {
		if p.Direction == models.DirectionUp {
			s.Up++
		} else {
			s.Down++
		}
		conf += p.Confidence
	}
	if s.Total > 0 {
		s.AvgConfidence = conf / float64(s.Total)
	}
	return s
}

// WriteTable prints one line per prediction followed by the summary.
func WriteTable(w io.Writer, preds []models.PredictionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCURRENT\tPREDICTED\tCHANGE\tCHANGE%\tDIRECTION\tCONFIDENCE")
	for _, p := range preds {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%+.2f\t%+.2f%%\t%s\t%.1f%%\n",
			p.Symbol, p.CurrentPrice, p.PredictedPrice, p.PriceChange, p.PercentChange, p.Direction, p.Confidence)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := Summarize(preds)
	_, err := fmt.Fprintf(w, "%s\n%d predictions: %d up, %d down, average confidence %.1f%%\n",
		strings.Repeat("-", 60), s.Total, s.Up, s.Down, s.AvgConfidence)
	return err
}
