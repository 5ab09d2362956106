package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	applogger "StockSeq/pkg/logger"
)

// RawFileStore writes provider responses under dir as <SYMBOL>_raw.json
// (historical) or <SYMBOL>_<kind>.json, overwriting earlier fetches.
type RawFileStore struct {
	dir string
	l   *applogger.Logger
}

func NewRawFileStore(dir string, l *applogger.Logger) *RawFileStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &RawFileStore{dir: dir, l: l}
}

// Path returns the file that holds symbol's dataset of the given kind.
func (s *RawFileStore) Path(symbol, kind string) string {
	suffix := kind
	if kind == "" || kind == models.KindHistorical {
		suffix = "raw"
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", strings.ToUpper(symbol), suffix))
}

func (s *RawFileStore) Save(ctx context.Context, obs models.RawObservationSet) error {
	pretty, err := indentJSON(obs.Body)
	if err != nil {
		pretty = obs.Body
	}
	path := s.Path(obs.Symbol, obs.Kind)
	if err := writeFileAtomic(path, pretty); err != nil {
		return fmt.Errorf("save raw %s: %w", obs.Symbol, err)
	}
	s.l.Debug("raw observations saved", applogger.Symbol(obs.Symbol), applogger.String("path", path))
	return nil
}

func (s *RawFileStore) Load(ctx context.Context, symbol, kind string) (models.RawObservationSet, error) {
	path := s.Path(symbol, kind)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.RawObservationSet{}, errs.Newf(errs.KindArtifactNotFound, symbol, "no raw data at %s, run acquire first", path)
	}
	if err != nil {
		return models.RawObservationSet{}, fmt.Errorf("read raw %s: %w", symbol, err)
	}
	if kind == "" {
		kind = models.KindHistorical
	}
	fetched := models.RawObservationSet{Symbol: symbol, Kind: kind, Body: b}
	if fi, err := os.Stat(path); err == nil {
		fetched.FetchedAt = fi.ModTime().UTC()
	}
	return fetched, nil
}

// indentJSON reformats whitespace only; keys, order and number literals are kept.
func indentJSON(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ domrepo.RawStore = (*RawFileStore)(nil)
