package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSeq/internal/domain/errs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"INDIANAPI_KEY", "SYMBOLS", "QUOTA_BACKEND", "LOG_LEVEL", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, c.Quota.DailyLimit)
	assert.Equal(t, "logs/request_log.json", c.Quota.Path)
	assert.Equal(t, []string{"TCS", "HDFC", "RELIANCE", "WIPRO", "INFY"}, c.Provider.Symbols)
	assert.Equal(t, []int{5, 10, 20}, c.Features.MAPeriods)
	assert.Equal(t, 10, c.Sequence.Lookback)
	assert.InDelta(t, 0.1, c.Sequence.TestSplit, 1e-12)
	assert.InDelta(t, 0.2, c.Sequence.ValidationSplit, 1e-12)
	assert.Equal(t, 10*time.Second, c.Provider.Timeout)
	assert.Equal(t, "csv", c.Storage.TableBackend)
	assert.Equal(t, 250, c.Provider.HistoryDays)
	assert.Equal(t, 100, c.Sequence.MinSequences)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
provider:
  symbols: [ABC]
  history_days: 30
quota:
  daily_limit: 3
sequence:
  lookback: 5
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC"}, c.Provider.Symbols)
	assert.Equal(t, 30, c.Provider.HistoryDays)
	assert.Equal(t, 3, c.Quota.DailyLimit)
	assert.Equal(t, 5, c.Sequence.Lookback)
	// untouched sections keep their defaults
	assert.Equal(t, 14, c.Features.RSIPeriod)
}

func TestLoad_BadYAMLIsConfigurationError(t *testing.T) {
	_, err := Load(writeConfig(t, "provider: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestLoadWithEnv_MissingCredential(t *testing.T) {
	clearEnv(t)
	_, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	assert.Contains(t, err.Error(), "INDIANAPI_KEY")
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("INDIANAPI_KEY", "secret")
	t.Setenv("SYMBOLS", " tcs, infy ,,")
	t.Setenv("QUOTA_BACKEND", "redis")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)
	assert.Equal(t, "secret", c.Provider.APIKey)
	assert.Equal(t, []string{"TCS", "INFY"}, c.Provider.Symbols)
	assert.Equal(t, "redis", c.Quota.Backend)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		c, err := Default()
		require.NoError(t, err)
		c.Provider.APIKey = "k"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbols", func(c *Config) { c.Provider.Symbols = nil }},
		{"split out of range", func(c *Config) { c.Sequence.TestSplit = 1.5 }},
		{"zero daily limit", func(c *Config) { c.Quota.DailyLimit = 0 }},
		{"unknown quota backend", func(c *Config) { c.Quota.Backend = "s3" }},
		{"bad ma window", func(c *Config) { c.Features.MAPeriods = []int{5, 0} }},
		{"unknown extra", func(c *Config) { c.Provider.Extras = []string{"news"} }},
		{"publish without brokers", func(c *Config) { c.Publish.Enabled = true }},
		{"history too short for min sequences", func(c *Config) { c.Provider.HistoryDays = 60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base(t)
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, errs.KindConfiguration, errs.KindOf(err))
		})
	}

	assert.NoError(t, base(t).Validate())

	c := base(t)
	c.Provider.HistoryDays = 60
	c.Sequence.MinSequences = 20
	assert.NoError(t, c.Validate(), "smaller datasets are fine when min_sequences allows them")
}
