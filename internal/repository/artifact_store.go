package repository

import (
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
)

// ArtifactFileStore reads the trainer's metadata sidecar (<SYMBOL>.json) and
// keeps the dataset scaler (<SYMBOL>_scaler.json) in the models directory.
type ArtifactFileStore struct {
	dir string
}

func NewArtifactFileStore(dir string) *ArtifactFileStore {
	return &ArtifactFileStore{dir: dir}
}

func (s *ArtifactFileStore) MetadataPath(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+".json")
}

func (s *ArtifactFileStore) ScalerPath(symbol string) string {
	return filepath.Join(s.dir, strings.ToUpper(symbol)+"_scaler.json")
}

func (s *ArtifactFileStore) SaveScaler(ctx context.Context, symbol string, p *models.NormalizationParams) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scaler %s: %w", symbol, err)
	}
	if err := writeFileAtomic(s.ScalerPath(symbol), b); err != nil {
		return fmt.Errorf("save scaler %s: %w", symbol, err)
	}
	return nil
}

func (s *ArtifactFileStore) LoadScaler(ctx context.Context, symbol string) (*models.NormalizationParams, error) {
	var p models.NormalizationParams
	if err := readArtifact(s.ScalerPath(symbol), symbol, "scaler", &p); err != nil {
		return nil, err
	}
	if len(p.Mean) != len(p.Features) || len(p.Std) != len(p.Features) {
		return nil, errs.Newf(errs.KindMalformed, symbol, "scaler has %d features, %d means, %d stds", len(p.Features), len(p.Mean), len(p.Std))
	}
	for i, sd := range p.Std {
		if sd == 0 {
			return nil, errs.Newf(errs.KindMalformed, symbol, "scaler std for %s is zero", p.Features[i])
		}
	}
	return &p, nil
}

func (s *ArtifactFileStore) LoadMetadata(ctx context.Context, symbol string) (*models.TrainingMetadata, error) {
	var m models.TrainingMetadata
	if err := readArtifact(s.MetadataPath(symbol), symbol, "training metadata", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func readArtifact(path, symbol, what string, dest interface{}) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return errs.Newf(errs.KindArtifactNotFound, symbol, "no %s at %s", what, path)
	}
	if err != nil {
		return fmt.Errorf("read %s %s: %w", what, symbol, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return errs.Wrap(errs.KindMalformed, symbol, err, what+" is not valid JSON")
	}
	return nil
}

var _ domrepo.ArtifactStore = (*ArtifactFileStore)(nil)
