package repository

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *models.IndicatorTable {
	t0 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	return &models.IndicatorTable{
		Symbol:  "TCS",
		Columns: []string{"close", "sma_5", "return"},
		Rows: []models.IndicatorRow{
			{Timestamp: t0, Values: []float64{3812.45, math.NaN(), math.NaN()}},
			{Timestamp: t0.AddDate(0, 0, 1), Values: []float64{3820.1, 3801.234567890123, 0.002006585}},
		},
	}
}

func TestTableCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTableCSVStore(t.TempDir(), nil)
	in := sampleTable()
	require.NoError(t, s.Save(ctx, in))

	b, err := os.ReadFile(s.Path("tcs"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, "timestamp,close,sma_5,return", lines[0])
	assert.Equal(t, "2024-05-02T00:00:00Z,3812.45,,", lines[1])

	out, err := s.Load(ctx, "TCS")
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	require.Equal(t, 2, out.Len())
	assert.True(t, out.Rows[0].Timestamp.Equal(in.Rows[0].Timestamp))
	assert.True(t, math.IsNaN(out.Rows[0].Values[1]))
	assert.Equal(t, in.Rows[1].Values, out.Rows[1].Values)
}

func TestTableCSVLoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewTableCSVStore(dir, nil)

	_, err := s.Load(ctx, "INFY")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))

	require.NoError(t, os.WriteFile(s.Path("INFY"), []byte("timestamp,close\nyesterday,1\n"), 0o644))
	_, err = s.Load(ctx, "INFY")
	assert.True(t, errors.Is(err, errs.ErrMalformed))

	require.NoError(t, os.WriteFile(s.Path("INFY"), []byte("timestamp,close\n2024-01-01T00:00:00Z,abc\n"), 0o644))
	_, err = s.Load(ctx, "INFY")
	assert.True(t, errors.Is(err, errs.ErrMalformed))
}

func TestDatasetFileStore(t *testing.T) {
	dir := t.TempDir()
	s := NewDatasetFileStore(dir, nil)
	ds := &models.PreparedDataset{
		Symbol:   "WIPRO",
		Features: []string{"close"},
		Lookback: 1,
		Target:   "close",
		Params:   &models.NormalizationParams{Features: []string{"close"}, Mean: []float64{1}, Std: []float64{1}},
		Split: models.Split{
			XTrain: [][][]float64{{{0.5}}},
			YTrain: []float64{2},
		},
	}
	require.NoError(t, s.Save(context.Background(), ds))

	b, err := os.ReadFile(filepath.Join(dir, "WIPRO_dataset.json"))
	require.NoError(t, err)
	body := string(b)
	assert.Contains(t, body, `"x_train":[[[0.5]]]`)
	assert.Contains(t, body, `"lookback":1`)
	assert.NotContains(t, body, "mean", "scaler goes to the models directory")
}

func TestArtifactFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewArtifactFileStore(dir)

	_, err := s.LoadScaler(ctx, "TCS")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
	_, err = s.LoadMetadata(ctx, "TCS")
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))

	p := &models.NormalizationParams{Features: []string{"a", "b"}, Mean: []float64{1, 2}, Std: []float64{0.5, 3}}
	require.NoError(t, s.SaveScaler(ctx, "tcs", p))
	got, err := s.LoadScaler(ctx, "TCS")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.NoError(t, os.WriteFile(s.MetadataPath("TCS"),
		[]byte(`{"symbol":"TCS","final_val_mae":0.031,"epochs_trained":42,"input_shape":[10,15]}`), 0o644))
	meta, err := s.LoadMetadata(ctx, "TCS")
	require.NoError(t, err)
	require.NotNil(t, meta.FinalValMAE)
	assert.Equal(t, 0.031, *meta.FinalValMAE)
	assert.Nil(t, meta.FinalMAE)
	assert.Equal(t, []int{10, 15}, meta.InputShape)
}

func TestArtifactFileStoreRejectsBadScaler(t *testing.T) {
	ctx := context.Background()
	s := NewArtifactFileStore(t.TempDir())

	require.NoError(t, os.WriteFile(s.ScalerPath("TCS"), []byte(`{"features":["a"],"mean":[1],"std":[]}`), 0o644))
	_, err := s.LoadScaler(ctx, "TCS")
	assert.True(t, errors.Is(err, errs.ErrMalformed))

	require.NoError(t, os.WriteFile(s.ScalerPath("TCS"), []byte(`{"features":["a"],"mean":[1],"std":[0]}`), 0o644))
	_, err = s.LoadScaler(ctx, "TCS")
	assert.True(t, errors.Is(err, errs.ErrMalformed))

	require.NoError(t, os.WriteFile(s.MetadataPath("TCS"), []byte(`not json`), 0o644))
	_, err = s.LoadMetadata(ctx, "TCS")
	assert.True(t, errors.Is(err, errs.ErrMalformed))
}

func TestIndicatorSchema(t *testing.T) {
	stmts := IndicatorSchema("stockseq")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS stockseq", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS stockseq.indicator_rows")

	assert.Len(t, IndicatorSchema(""), 1)
	assert.Equal(t, "indicator_rows", qualifiedTable(""))
}

func TestRawFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewRawFileStore(dir, nil)

	assert.Equal(t, filepath.Join(dir, "TCS_raw.json"), s.Path("tcs", models.KindHistorical))
	assert.Equal(t, filepath.Join(dir, "TCS_quote.json"), s.Path("TCS", models.KindQuote))

	body := []byte(`{"z":1,"a":12345678901234567890.5}`)
	require.NoError(t, s.Save(ctx, models.RawObservationSet{Symbol: "TCS", Kind: models.KindHistorical, Body: body}))

	got, err := s.Load(ctx, "TCS", models.KindHistorical)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 12345678901234567890.5\n}", string(got.Body))
	assert.False(t, got.FetchedAt.IsZero())

	_, err = s.Load(ctx, "INFY", models.KindHistorical)
	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound))
}
