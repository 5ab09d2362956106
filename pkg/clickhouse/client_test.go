package clickhouse

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(Config{
		Host:        "ch.local",
		Port:        9000,
		Database:    "stockseq",
		User:        "app",
		Password:    "p@ss",
		DialTimeout: 5 * time.Second,
		MaxExecTime: 30 * time.Second,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9000", u.Host)
	assert.Equal(t, "/stockseq", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "5s", u.Query().Get("dial_timeout"))
	assert.Equal(t, "30", u.Query().Get("max_execution_time"))
	assert.Empty(t, u.Query().Get("read_timeout"))
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(Config{Host: "h", Port: 8123, Database: "d", User: "u", UseHTTP: true})
	assert.Equal(t, "http://u:@h:8123/d", dsn)
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(context.Background(), WithDatabase("stockseq"))
	assert.EqualError(t, err, "host is required")

	_, err = NewClient(context.Background(), WithAddr("ch.local", 0))
	assert.EqualError(t, err, "invalid port 0")

	_, err = NewClient(context.Background(), WithAddr("ch.local", 9000), WithDatabase("prod; DROP TABLE x"))
	assert.Error(t, err)
}

func TestOptionsKeepDefaults(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []Option{
		WithAddr("ch.local", 9440),
		WithTimeouts(0, 20*time.Second),
		WithPool(8, 4, 0),
	} {
		opt(&cfg)
	}
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 20*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 8, cfg.MaxOpenConns)
	assert.NoError(t, cfg.validate())
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("stockseq_v2"))
	assert.False(t, ValidIdentifier("1db"))
	assert.False(t, ValidIdentifier("a.b"))
}
