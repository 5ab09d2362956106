package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	applogger "StockSeq/pkg/logger"
	"StockSeq/pkg/util"
)

const fieldTimestamp = "timestamp"

// FieldMapping lists accepted source keys per canonical column, matched case-insensitively.
type FieldMapping map[string][]string

// DefaultFieldMapping covers the spellings seen across OHLCV feeds.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		fieldTimestamp:   {"timestamp", "date", "time", "datetime", "t"},
		models.ColOpen:   {"open", "o"},
		models.ColHigh:   {"high", "h"},
		models.ColLow:    {"low", "l"},
		models.ColClose:  {"close", "c"},
		models.ColVolume: {"volume", "v"},
	}
}

// Positional record layout: [timestamp, open, high, low, close, volume].
var positional = []string{fieldTimestamp, models.ColOpen, models.ColHigh, models.ColLow, models.ColClose, models.ColVolume}

type Config struct {
	RecordsKey       string
	MAPeriods        []int
	RSIPeriod        int
	VolatilityWindow int
	MinRows          int
	Fields           FieldMapping
}

func DefaultConfig() Config {
	return Config{
		RecordsKey:       "data",
		MAPeriods:        []int{5, 10, 20},
		RSIPeriod:        14,
		VolatilityWindow: 10,
		MinRows:          30,
		Fields:           DefaultFieldMapping(),
	}
}

// Engine turns a raw provider payload into an indicator table.
type Engine struct {
	cfg Config
	l   *applogger.Logger
}

func NewEngine(cfg Config, l *applogger.Logger) *Engine {
	if cfg.Fields == nil {
		cfg.Fields = DefaultFieldMapping()
	}
	if cfg.RecordsKey == "" {
		cfg.RecordsKey = "data"
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Engine{cfg: cfg, l: l}
}

// Columns returns the table layout produced by Compute.
func (e *Engine) Columns() []string {
	cols := append([]string{}, models.BaseColumns...)
	for _, w := range e.cfg.MAPeriods {
		cols = append(cols, fmt.Sprintf("sma_%d", w))
	}
	for _, w := range e.cfg.MAPeriods {
		cols = append(cols, fmt.Sprintf("ema_%d", w))
	}
	return append(cols, fmt.Sprintf("rsi_%d", e.cfg.RSIPeriod), "roc", "volatility", "return")
}

// Build parses raw and computes every indicator.
func (e *Engine) Build(symbol string, raw []byte) (*models.IndicatorTable, error) {
	rows, err := e.Parse(symbol, raw)
	if err != nil {
		return nil, err
	}
	return e.Compute(symbol, rows), nil
}

// Parse extracts clean, ascending, de-duplicated OHLCV rows.
func (e *Engine) Parse(symbol string, raw []byte) ([]models.OHLCVRow, error) {
	records, err := e.records(symbol, raw)
	if err != nil {
		return nil, err
	}

	var rows []models.OHLCVRow
	if isArray(records[0]) {
		rows, err = parsePositional(symbol, records)
	} else {
		rows, err = e.parseObjects(symbol, records)
	}
	if err != nil {
		return nil, err
	}

	total := len(rows)
	kept := rows[:0]
	for _, r := range rows {
		if r.Timestamp.IsZero() || math.IsNaN(r.Close) || math.IsNaN(r.Volume) {
			continue
		}
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp.Before(kept[j].Timestamp) })

	// duplicates: the later record wins
	deduped := make([]models.OHLCVRow, 0, len(kept))
	for i, r := range kept {
		if i+1 < len(kept) && kept[i+1].Timestamp.Equal(r.Timestamp) {
			continue
		}
		deduped = append(deduped, r)
	}

	if dropped := total - len(deduped); dropped > 0 {
		e.l.Warn("dropped unusable rows",
			applogger.Symbol(symbol),
			applogger.Int("dropped", dropped),
			applogger.Int("kept", len(deduped)),
		)
	}
	if len(deduped) < e.cfg.MinRows {
		return nil, errs.Newf(errs.KindInsufficientData, symbol, "%d usable rows, need %d", len(deduped), e.cfg.MinRows)
	}
	return deduped, nil
}

// Compute derives the indicator columns from rows already sorted by time.
func (e *Engine) Compute(symbol string, rows []models.OHLCVRow) *models.IndicatorTable {
	n := len(rows)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, r := range rows {
		open[i], high[i], low[i], closes[i], volume[i] = r.Open, r.High, r.Low, r.Close, r.Volume
	}

	series := [][]float64{open, high, low, closes, volume}
	for _, w := range e.cfg.MAPeriods {
		series = append(series, SMA(closes, w))
	}
	for _, w := range e.cfg.MAPeriods {
		series = append(series, EMA(closes, w))
	}
	returns := PctChange(closes)
	series = append(series,
		RSI(closes, e.cfg.RSIPeriod),
		ROC(closes),
		RollingStd(returns, e.cfg.VolatilityWindow),
		returns,
	)

	t := &models.IndicatorTable{
		Symbol:  symbol,
		Columns: e.Columns(),
		Rows:    make([]models.IndicatorRow, n),
	}
	for i := range rows {
		vals := make([]float64, len(series))
		for c, s := range series {
			vals[c] = s[i]
		}
		t.Rows[i] = models.IndicatorRow{Timestamp: rows[i].Timestamp, Values: vals}
	}
	return t
}

func (e *Engine) records(symbol string, raw []byte) ([]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(errs.KindMalformed, symbol, err, "payload is not a JSON object")
	}
	body, ok := lookup(doc, e.cfg.RecordsKey)
	if !ok {
		return nil, errs.Newf(errs.KindMalformed, symbol, "payload has no %q records", e.cfg.RecordsKey)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errs.Wrap(errs.KindMalformed, symbol, err, "records are not a list")
	}
	if len(records) == 0 {
		return nil, errs.New(errs.KindMalformed, symbol, "records list is empty")
	}
	return records, nil
}

func (e *Engine) parseObjects(symbol string, records []json.RawMessage) ([]models.OHLCVRow, error) {
	// keys are folded to lower case per record, so records may differ in casing
	objs := make([]map[string]interface{}, 0, len(records))
	seen := make(map[string]bool)
	for i, rec := range records {
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.UseNumber()
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return nil, errs.Wrap(errs.KindMalformed, symbol, err, fmt.Sprintf("record %d is not an object", i))
		}
		folded := make(map[string]interface{}, len(m))
		for k, v := range m {
			lk := strings.ToLower(k)
			if _, dup := folded[lk]; !dup {
				folded[lk] = v
			}
			seen[lk] = true
		}
		objs = append(objs, folded)
	}

	resolved := make(map[string]string, len(positional))
	var missing []string
	for _, field := range positional {
		key, ok := "", false
		for _, alias := range e.cfg.Fields[field] {
			if key = strings.ToLower(alias); seen[key] {
				ok = true
				break
			}
		}
		if !ok {
			missing = append(missing, field)
			continue
		}
		resolved[field] = key
	}
	if len(missing) > 0 {
		return nil, errs.Newf(errs.KindMalformed, symbol, "missing required columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]models.OHLCVRow, len(objs))
	for i, m := range objs {
		rows[i] = models.OHLCVRow{
			Timestamp: toTime(m[resolved[fieldTimestamp]]),
			Open:      toFloat(m[resolved[models.ColOpen]]),
			High:      toFloat(m[resolved[models.ColHigh]]),
			Low:       toFloat(m[resolved[models.ColLow]]),
			Close:     toFloat(m[resolved[models.ColClose]]),
			Volume:    toFloat(m[resolved[models.ColVolume]]),
		}
	}
	return rows, nil
}

func parsePositional(symbol string, records []json.RawMessage) ([]models.OHLCVRow, error) {
	rows := make([]models.OHLCVRow, 0, len(records))
	for i, rec := range records {
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.UseNumber()
		var arr []interface{}
		if err := dec.Decode(&arr); err != nil {
			return nil, errs.Wrap(errs.KindMalformed, symbol, err, fmt.Sprintf("record %d is not a list", i))
		}
		if len(arr) < len(positional) {
			return nil, errs.Newf(errs.KindMalformed, symbol, "record %d has %d fields, need %d", i, len(arr), len(positional))
		}
		rows = append(rows, models.OHLCVRow{
			Timestamp: toTime(arr[0]),
			Open:      toFloat(arr[1]),
			High:      toFloat(arr[2]),
			Low:       toFloat(arr[3]),
			Close:     toFloat(arr[4]),
			Volume:    toFloat(arr[5]),
		})
	}
	return rows, nil
}

func lookup(doc map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	if v, ok := doc[key]; ok {
		return v, true
	}
	for k, v := range doc {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func isArray(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '['
}

// toFloat coerces numbers and numeric strings; anything else is NaN.
func toFloat(v interface{}) float64 {
	var f float64
	var err error
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case float64:
		f = x
	default:
		return math.NaN()
	}
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// toTime returns the zero time when v is not a recognisable timestamp.
func toTime(v interface{}) time.Time {
	switch x := v.(type) {
	case string:
		if t, ok := util.ParseTime(x); ok {
			return t
		}
	case json.Number:
		if f, err := x.Float64(); err == nil {
			if t, ok := util.ParseUnix(f); ok {
				return t
			}
		}
	}
	return time.Time{}
}
