package kafka

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	HashByKey    bool
	Registerer   prometheus.Registerer
	Writer       MessageWriter
}

// BatchTimeout is short: each run publishes one synchronous batch.
func defaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		HashByKey:    true,
	}
}

var codecs = map[string]kafka.Compression{
	"":       0,
	"none":   0,
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

func (c ProducerConfig) validate() error {
	if len(c.Brokers) == 0 && c.Writer == nil {
		return fmt.Errorf("brokers are required")
	}
	if _, ok := codecs[c.Compression]; !ok {
		return fmt.Errorf("unknown compression %q", c.Compression)
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("required acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	return nil
}

func (c ProducerConfig) newWriter() *kafka.Writer {
	bal := kafka.Balancer(&kafka.LeastBytes{})
	if c.HashByKey {
		bal = &kafka.Hash{}
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(c.RequiredAcks),
		Compression:  codecs[c.Compression],
		MaxAttempts:  c.MaxAttempts,
		WriteTimeout: c.WriteTimeout,
		ReadTimeout:  c.ReadTimeout,
		BatchSize:    c.BatchSize,
		BatchTimeout: c.BatchTimeout,
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression selects none, gzip, snappy, lz4 or zstd.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) { c.MaxAttempts = n }
}

// WithTimeouts sets writer write/read timeouts; zero keeps the default.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

func WithBatching(size int, timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
		c.BatchTimeout = timeout
	}
}

// WithHashByKey keeps every message of a key (symbol) on one partition.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}

// WithRegisterer registers producer metrics on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) ProducerOption {
	return func(c *ProducerConfig) { c.Registerer = reg }
}

// WithWriter replaces the kafka-go writer; brokers are then optional.
func WithWriter(w MessageWriter) ProducerOption {
	return func(c *ProducerConfig) { c.Writer = w }
}
