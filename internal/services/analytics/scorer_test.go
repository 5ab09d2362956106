package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockSeq/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorerPostsWindow(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"prediction": 123.5}`))
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL+"/", time.Second, 1)
	v, err := s.Score(context.Background(), "TCS", [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, 123.5, v)
	assert.Equal(t, "TCS", got.Symbol)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, got.Window)
}

func TestScorerRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"prediction": 1}`))
	}))
	defer srv.Close()

	v, err := NewHTTPScorer(srv.URL, time.Second, 2).Score(context.Background(), "TCS", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestScorerDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPScorer(srv.URL, time.Second, 3).Score(context.Background(), "TCS", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindServer, errs.KindOf(err))
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestScorerBadAnswers(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      `oops`,
		"no prediction": `{"value": 3}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewHTTPScorer(srv.URL, time.Second, 2).Score(context.Background(), "TCS", nil)
			assert.Equal(t, errs.KindMalformed, errs.KindOf(err))
		})
	}
}

func TestScorerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPScorer(url, time.Second, 1).Score(context.Background(), "TCS", nil)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}
