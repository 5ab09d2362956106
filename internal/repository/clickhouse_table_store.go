package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	pkgch "StockSeq/pkg/clickhouse"
	applogger "StockSeq/pkg/logger"
)

const indicatorTable = "indicator_rows"

// CHTableStore keeps indicator tables in ClickHouse. Every Save writes a new
// version for the symbol; Load reads back only the newest version.
type CHTableStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

func NewCHTableStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHTableStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHTableStore{db: ch.DB(), table: qualifiedTable(database), l: l, now: time.Now}
}

func qualifiedTable(database string) string {
	if database == "" {
		return indicatorTable
	}
	return database + "." + indicatorTable
}

// IndicatorSchema returns the DDL for the indicator table.
func IndicatorSchema(database string) []string {
	stmts := []string{}
	if database != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database))
	}
	return append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol      LowCardinality(String),
            version     UInt64,
            ts          DateTime64(3, 'UTC'),
            cols        Array(String),
            vals        Array(Float64)
        )
        ENGINE = MergeTree
        ORDER BY (symbol, version, ts)
    `, qualifiedTable(database)))
}

func (s *CHTableStore) Save(ctx context.Context, t *models.IndicatorTable) error {
	start := time.Now()
	version := uint64(s.now().UnixNano())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (symbol, version, ts, cols, vals)", s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		if _, err := stmt.ExecContext(ctx, t.Symbol, version, r.Timestamp.UTC(), t.Columns, r.Values); err != nil {
			_ = tx.Rollback()
			s.l.Error("clickhouse table append error",
				applogger.String("table", s.table),
				applogger.Symbol(t.Symbol),
				applogger.Error(err),
			)
			return fmt.Errorf("append row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	s.l.Info("clickhouse table saved",
		applogger.String("table", s.table),
		applogger.Symbol(t.Symbol),
		applogger.Int("rows", t.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHTableStore) Load(ctx context.Context, symbol string) (*models.IndicatorTable, error) {
	q := fmt.Sprintf(`
        SELECT ts, cols, vals
        FROM %[1]s
        WHERE symbol = ? AND version = (SELECT max(version) FROM %[1]s WHERE symbol = ?)
        ORDER BY ts ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol)
	if err != nil {
		s.l.Error("clickhouse table query error",
			applogger.String("table", s.table),
			applogger.Symbol(symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load table: %w", err)
	}
	defer rows.Close()

	t := &models.IndicatorTable{Symbol: symbol}
	for rows.Next() {
		var (
			ts   time.Time
			cols []string
			vals []float64
		)
		if err := rows.Scan(&ts, &cols, &vals); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if t.Columns == nil {
			t.Columns = cols
		}
		if len(vals) != len(t.Columns) {
			return nil, errs.Newf(errs.KindMalformed, symbol, "row %s has %d values for %d columns", ts.Format(time.RFC3339), len(vals), len(t.Columns))
		}
		t.Rows = append(t.Rows, models.IndicatorRow{Timestamp: ts.UTC(), Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(t.Rows) == 0 {
		return nil, errs.Newf(errs.KindArtifactNotFound, symbol, "no indicator rows in %s, run features first", s.table)
	}
	return t, nil
}

var _ domrepo.TableStore = (*CHTableStore)(nil)
