package models

import (
	"math"
	"time"
)

// Base OHLCV columns, in table order.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

var BaseColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// IndicatorRow holds one timestamp's values, aligned with IndicatorTable.Columns.
type IndicatorRow struct {
	Timestamp time.Time
	Values    []float64
}

// IndicatorTable is a time-ordered feature table. NaN marks a cell without enough history.
type IndicatorTable struct {
	Symbol  string
	Columns []string
	Rows    []IndicatorRow
}

func (t *IndicatorTable) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of name in Columns, or -1.
func (t *IndicatorTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column copies out one column.
func (t *IndicatorTable) Column(name string) ([]float64, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[idx]
	}
	return out, true
}

// Tail returns a table sharing the last n rows.
func (t *IndicatorTable) Tail(n int) *IndicatorTable {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &IndicatorTable{
		Symbol:  t.Symbol,
		Columns: t.Columns,
		Rows:    t.Rows[len(t.Rows)-n:],
	}
}

// Complete reports whether every cell of the row is present.
func (r IndicatorRow) Complete() bool {
	for _, v := range r.Values {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// CompleteRuns splits the table into maximal runs of consecutive complete
// rows, in order, and reports how many rows were left out. Rows inside a run
// are adjacent in the original table.
func (t *IndicatorTable) CompleteRuns() ([]*IndicatorTable, int) {
	var (
		runs    []*IndicatorTable
		dropped int
		start   = -1
	)
	flush := func(end int) {
		if start >= 0 {
			runs = append(runs, &IndicatorTable{Symbol: t.Symbol, Columns: t.Columns, Rows: t.Rows[start:end]})
			start = -1
		}
	}
	for i, r := range t.Rows {
		if !r.Complete() {
			flush(i)
			dropped++
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(t.Rows))
	return runs, dropped
}
