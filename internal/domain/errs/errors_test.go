package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := Wrap(KindNetwork, "TCS", errors.New("dial tcp: timeout"), "fetch historical")
	wrapped := fmt.Errorf("acquire: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNetwork))
	assert.False(t, errors.Is(wrapped, ErrServer))
	assert.Equal(t, KindNetwork, KindOf(wrapped))
	assert.Contains(t, err.Error(), "[TCS]")
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, New(KindRateLimited, "", "").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, New(KindArtifactNotFound, "INFY", "").HTTPStatus())
	assert.Equal(t, 429, New(KindServer, "", "").WithStatus(429).Status)
}
