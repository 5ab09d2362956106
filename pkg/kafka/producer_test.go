package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNewProducerValidates(t *testing.T) {
	_, err := NewProducer()
	assert.EqualError(t, err, "brokers are required")

	_, err = NewProducer(WithBrokers([]string{"k:9092"}), WithCompression("brotli"))
	assert.Error(t, err)

	_, err = NewProducer(WithBrokers([]string{"k:9092"}), WithRequiredAcks(2))
	assert.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"k:9092"}), WithCompression("zstd"), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafka.Zstd, kw.Compression)
	assert.IsType(t, &kafka.Hash{}, kw.Balancer)
}

func TestPublishBatchEncodes(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := &fakeWriter{}
	p, err := NewProducer(WithWriter(w), WithRegisterer(reg))
	require.NoError(t, err)

	err = p.PublishBatch(context.Background(), "preds", []Message{
		{Key: []byte("TCS"), Value: map[string]float64{"predicted": 101.5}},
		{Key: []byte("INFY"), Value: "raw"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "preds", w.msgs[0].Topic)
	assert.Equal(t, "TCS", string(w.msgs[0].Key))
	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.InDelta(t, 101.5, body["predicted"], 1e-9)
	assert.Equal(t, "raw", string(w.msgs[1].Value))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("preds", "gzip", "ok")))
}

func TestPublishBatchError(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithWriter(&fakeWriter{err: errors.New("leader not available")}), WithRegisterer(reg))
	require.NoError(t, err)

	err = p.Publish(context.Background(), "preds", []byte("TCS"), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.errs.WithLabelValues("preds")))

	// empty batches are a no-op
	assert.NoError(t, p.PublishBatch(context.Background(), "preds", nil))
}
