package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_JSONFileOutput(t *testing.T) {
	p := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: p})
	require.NoError(t, err)

	l.With(Component("ledger")).Info("charged",
		Symbol("TCS"),
		Int("today", 3),
		Float64("ratio", 0.5),
		Strings("symbols", []string{"TCS"}),
		Duration("took", 1500*time.Millisecond),
		Bool("ok", true),
		Error(errors.New("boom")),
	)
	l.Debug("filtered out")

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "charged", entry["message"])
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "TCS", entry["symbol"])
	assert.EqualValues(t, 3, entry["today"])
	assert.Equal(t, true, entry["ok"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "TCS", entry["symbols"])
	assert.EqualValues(t, 1500, entry["took"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored", String("k", "v"))
	l.With(Int("n", 1)).Error("ignored")
}

func TestWithCarriesErrorText(t *testing.T) {
	f := Error(errors.New("disk full"))
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "disk full", f.Value)
	assert.Nil(t, Error(nil).Value)
}
