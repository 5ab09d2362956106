package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	applogger "StockSeq/pkg/logger"
)

// DatasetFileStore writes prepared datasets as <SYMBOL>_dataset.json for the trainer.
type DatasetFileStore struct {
	dir string
	l   *applogger.Logger
}

func NewDatasetFileStore(dir string, l *applogger.Logger) *DatasetFileStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &DatasetFileStore{dir: dir, l: l}
}

func (s *DatasetFileStore) Path(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+"_dataset.json")
}

func (s *DatasetFileStore) Save(ctx context.Context, d *models.PreparedDataset) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dataset %s: %w", d.Symbol, err)
	}
	path := s.Path(d.Symbol)
	if err := writeFileAtomic(path, b); err != nil {
		return fmt.Errorf("save dataset %s: %w", d.Symbol, err)
	}
	s.l.Debug("dataset saved", applogger.Symbol(d.Symbol), applogger.String("path", path))
	return nil
}

var _ domrepo.DatasetStore = (*DatasetFileStore)(nil)
