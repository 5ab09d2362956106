package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	applogger "StockSeq/pkg/logger"
)

const timestampHeader = "timestamp"

// TableCSVStore keeps one processed table per symbol as <SYMBOL>_processed.csv.
// Missing indicator cells are written as empty fields.
type TableCSVStore struct {
	dir string
	l   *applogger.Logger
}

func NewTableCSVStore(dir string, l *applogger.Logger) *TableCSVStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &TableCSVStore{dir: dir, l: l}
}

func (s *TableCSVStore) Path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+"_processed.csv")
}

func (s *TableCSVStore) Save(ctx context.Context, t *models.IndicatorTable) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append([]string{timestampHeader}, t.Columns...)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns)+1)
	for _, r := range t.Rows {
		rec[0] = r.Timestamp.UTC().Format(time.RFC3339)
		for i, v := range r.Values {
			rec[i+1] = formatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	path := s.Path(t.Symbol)
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save table %s: %w", t.Symbol, err)
	}
	s.l.Debug("table saved", applogger.Symbol(t.Symbol), applogger.Int("rows", t.Len()), applogger.String("path", path))
	return nil
}

func (s *TableCSVStore) Load(ctx context.Context, symbol string) (*models.IndicatorTable, error) {
	path := s.Path(symbol)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.Newf(errs.KindArtifactNotFound, symbol, "no processed table at %s, run features first", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", symbol, err)
	}

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, errs.Wrap(errs.KindMalformed, symbol, err, "processed table is not valid csv")
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != timestampHeader {
		return nil, errs.New(errs.KindMalformed, symbol, "processed table has no header")
	}

	t := &models.IndicatorTable{
		Symbol:  symbol,
		Columns: append([]string(nil), records[0][1:]...),
		Rows:    make([]models.IndicatorRow, 0, len(records)-1),
	}
	for line, rec := range records[1:] {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, errs.Wrap(errs.KindMalformed, symbol, err, fmt.Sprintf("line %d: bad timestamp", line+2))
		}
		vals := make([]float64, len(t.Columns))
		for i, cell := range rec[1:] {
			if vals[i], err = parseCell(cell); err != nil {
				return nil, errs.Wrap(errs.KindMalformed, symbol, err, fmt.Sprintf("line %d column %s", line+2, t.Columns[i]))
			}
		}
		t.Rows = append(t.Rows, models.IndicatorRow{Timestamp: ts.UTC(), Values: vals})
	}
	return t, nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

var _ domrepo.TableStore = (*TableCSVStore)(nil)
